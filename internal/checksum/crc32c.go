// crc32c.go computes the CRC32C (Castagnoli) checksum FIFS verifies on
// Append/PositionedAppend's checksum handoff. FIFS only ever checksums a
// whole buffer in one call — there is no block-at-a-time extension and
// nothing ever needs to recover an unmasked value from storage — so this
// carries only Value, Mask, and the MaskedValue convenience, not the
// teacher's full block-CRC surface (Extend/Unmask/MaskedExtend).
//
// Reference: RocksDB v10.7.5 util/crc32c.h/.cc, as adapted from
// internal/checksum/crc32c.go in the teacher repo.
package checksum

import "hash/crc32"

// crc32cTable is the Castagnoli polynomial table used for CRC32C.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// maskDelta is the constant added during masking.
// From RocksDB: static const uint32_t kMaskDelta = 0xa282ead8ul;
const maskDelta = 0xa282ead8

// Value computes the CRC32C checksum of data.
func Value(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Mask returns a masked representation of crc, so a CRC stored alongside
// data it was computed over doesn't corrupt itself if that data is later
// re-checksummed.
func Mask(crc uint32) uint32 {
	// Rotate right by 15 bits and add a constant.
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// MaskedValue computes the CRC32C and masks it in one call: the checksum
// handoff verification path's only entry point into this file.
func MaskedValue(data []byte) uint32 {
	return Mask(Value(data))
}
