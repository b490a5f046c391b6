package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/chacha20"
)

// NonceSize is the nonce length required by the NaCl box primitive used for
// peer-to-peer encryption.
const NonceSize = 24

// NonceStream deterministically produces an unbounded sequence of nonces from
// a fixed seed. Two endpoints that derive their encrypt/decrypt streams from
// matching seeds (the same per-direction seed on both ends, so one side's
// encrypt stream equals the other side's decrypt stream) draw identical
// nonces in lockstep without ever putting a nonce on the wire.
//
// The stream has no notion of "the n-th nonce was already used"; callers
// must guarantee in-order, non-concurrent use per peer, matching the
// SecureChannel contract.
type NonceStream struct {
	cipher *chacha20.Cipher
}

// NewNonceStream seeds a nonce stream from an arbitrary-length seed, typically
// a 32-byte per-direction seed derived from both peers' public keys.
func NewNonceStream(seed []byte) *NonceStream {
	key := sha256.Sum256(seed)
	// A zero nonce is safe here: the ChaCha20 key itself is unique per seed,
	// so the keystream it produces is unique per peer/direction pair.
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// Only possible if key/nonce length is wrong, which cannot happen here.
		panic(err)
	}
	return &NonceStream{cipher: c}
}

// Next draws the next 24-byte nonce from the stream.
func (s *NonceStream) Next() [NonceSize]byte {
	var out [NonceSize]byte
	s.cipher.XORKeyStream(out[:], out[:])
	return out
}
