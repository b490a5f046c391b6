package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"
)

// KeySize is the length in bytes of a public or secret key used for the
// peer-to-peer key exchange (Curve25519).
const KeySize = 32

// KeyPair is a Curve25519 key pair. The same key pair is reused for the
// lifetime of a SecureChannel; the channel hands its Public key to every peer
// it exchanges keys with.
type KeyPair struct {
	Public [KeySize]byte
	Secret [KeySize]byte
}

// GenerateKeyPair creates a fresh random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: *pub, Secret: *sec}, nil
}
