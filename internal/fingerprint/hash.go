package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// CanonicalBytes serializes the vector's 25 fields in fixed order as
// little-endian IEEE-754 doubles (spec.md §6.1), the byte layout hashed for
// integrity verification.
func (v *Vector) CanonicalBytes() []byte {
	fields := v.fieldOrder()
	buf := new(bytes.Buffer)
	buf.Grow(len(fields) * 8)
	for _, f := range fields {
		_ = binary.Write(buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

// Hash returns the SHA-256 hex digest of the vector's canonical bytes.
func (v *Vector) Hash() string {
	sum := sha256.Sum256(v.CanonicalBytes())
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash over v and compares against the stored
// expected hash. A mismatch means the fingerprint is treated as absent
// (errors.FingerprintIntegrity, spec.md §3 invariants, §8 invariant 2).
func (v *Vector) Verify(expectedHash string) bool {
	return v.Hash() == expectedHash
}
