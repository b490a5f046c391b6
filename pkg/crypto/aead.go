package crypto

import (
	"errors"

	"golang.org/x/crypto/nacl/box"
)

// ErrDecryptionFailed is returned when a ciphertext fails authentication.
var ErrDecryptionFailed = errors.New("crypto: decryption failed")

// PeerBox is an authenticated-encryption context bound to one local secret
// key and one peer public key. It precomputes the Curve25519 shared secret
// once and reuses it for every subsequent seal/open, avoiding a scalar
// multiplication per message.
type PeerBox struct {
	sharedKey [KeySize]byte
}

// NewPeerBox precomputes the shared key for (localSecret, peerPublic).
func NewPeerBox(localSecret, peerPublic *[KeySize]byte) *PeerBox {
	p := &PeerBox{}
	box.Precompute(&p.sharedKey, peerPublic, localSecret)
	return p
}

// Seal encrypts and authenticates plaintext under the given nonce, appending
// the result to out (which may be nil).
func (p *PeerBox) Seal(out, plaintext []byte, nonce [NonceSize]byte) []byte {
	return box.SealAfterPrecomputation(out, plaintext, &nonce, &p.sharedKey)
}

// Open authenticates and decrypts ciphertext under the given nonce.
func (p *PeerBox) Open(out, ciphertext []byte, nonce [NonceSize]byte) ([]byte, error) {
	plain, ok := box.OpenAfterPrecomputation(out, ciphertext, &nonce, &p.sharedKey)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}
