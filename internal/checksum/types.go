// types.go defines the checksum types the fault-injection filesystem
// verifies on handoff, and the Compute/Encode entry points the writable
// file wrapper uses to check a caller's checksum against the bytes it
// actually received.
//
// Reference: RocksDB v10.7.5
//   - include/rocksdb/table.h (ChecksumType enum)
//   - utilities/fault_injection_fs.cc (verification_info checks in Append)
package checksum

import "encoding/binary"

// Type represents the type of checksum algorithm a caller hands off for
// verification.
type Type uint8

const (
	// TypeNoChecksum means no checksum is used; verification is skipped.
	TypeNoChecksum Type = 0
	// TypeCRC32C is CRC32C (Castagnoli) checksum.
	TypeCRC32C Type = 1
	// TypeXXHash is the xxHash family member used for handoff checksums.
	TypeXXHash Type = 2
)

// String returns a human-readable name for the checksum type.
func (t Type) String() string {
	switch t {
	case TypeNoChecksum:
		return "NoChecksum"
	case TypeCRC32C:
		return "CRC32C"
	case TypeXXHash:
		return "XXHash"
	default:
		return "Unknown"
	}
}

// Compute returns the masked checksum of data under the given type. For
// TypeNoChecksum it returns 0; callers must not compare TypeNoChecksum
// checksums for equality.
func Compute(t Type, data []byte) uint32 {
	switch t {
	case TypeCRC32C:
		return MaskedValue(data)
	case TypeXXHash:
		return MaskedXXH3(data)
	case TypeNoChecksum:
		return 0
	default:
		return 0
	}
}

// Encode returns the little-endian fixed-32 wire encoding of Compute's
// result — the representation a caller attaches to Append's verification
// argument and the writable file recomputes and compares against.
func Encode(t Type, data []byte) []byte {
	if t == TypeNoChecksum {
		return nil
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, Compute(t, data))
	return buf
}

// Decode reads back a little-endian fixed-32 checksum previously produced
// by Encode. ok is false if buf isn't exactly 4 bytes.
func Decode(buf []byte) (uint32, bool) {
	if len(buf) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf), true
}
