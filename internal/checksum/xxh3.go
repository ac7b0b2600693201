// xxh3.go wires the xxHash handoff checksum to the real xxh3 library
// instead of a hand-rolled reimplementation.
//
// Reference: github.com/zeebo/xxh3 — pure-Go XXH3_64bits.
package checksum

import "github.com/zeebo/xxh3"

// maskDeltaXXH reuses the CRC32C masking constant's rotate-and-add shape
// so that a masked XXH3 value is just as unsafe to embed raw in a buffer
// that gets re-hashed, matching the CRC32C masking rationale above.
const maskDeltaXXH = 0xae23ad45

// XXH3Value computes the 64-bit XXH3 hash of data and folds it to 32
// bits by XORing the high and low halves.
func XXH3Value(data []byte) uint32 {
	h := xxh3.Hash(data)
	return uint32(h) ^ uint32(h>>32)
}

// MaskXXH rotates and offsets an XXH3-derived 32-bit value the same way
// Mask does for CRC32C, so neither checksum family is safe to embed
// unmasked in data that will itself be checksummed.
func MaskXXH(v uint32) uint32 {
	return ((v >> 15) | (v << 17)) + maskDeltaXXH
}

// MaskedXXH3 computes and masks the XXH3-derived checksum in one call.
func MaskedXXH3(data []byte) uint32 {
	return MaskXXH(XXH3Value(data))
}
