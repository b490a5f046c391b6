// Package crypto provides the cryptographic primitives the chat protocol is
// built from: hashing, key derivation, key exchange, authenticated
// encryption, the deterministic nonce stream, and the password KDF.
package crypto

import (
	"crypto/sha256"
)

// SHA-256 output sizes.
const (
	SHA256LenBits  = 256
	SHA256LenBytes = 32
)

// SHA256 computes the SHA-256 cryptographic hash of a message.
//
// Returns a 32-byte (256-bit) hash digest.
func SHA256(message []byte) [SHA256LenBytes]byte {
	return sha256.Sum256(message)
}
