package securechannel

import (
	"sync"

	"github.com/coldwire/coldwire/pkg/crypto"
)

// peerContext is the authenticated-encryption state SecureChannel keeps for
// one peer once a key exchange has installed a public key for it: a
// precomputed shared box plus the two independent deterministic nonce
// streams that keep both endpoints' encrypt/decrypt directions in lockstep
// without ever putting a nonce on the wire.
//
// Encrypt and Decrypt each draw their next nonce and perform the AEAD
// operation while holding mu, so a single peerContext safely serializes
// concurrent SendPlain/Recv traffic for that peer; callers must still
// preserve per-peer ordering themselves, since the nonce streams assume
// lockstep consumption (see package securechannel doc).
type peerContext struct {
	mu sync.Mutex

	box           *crypto.PeerBox
	encryptStream *crypto.NonceStream
	decryptStream *crypto.NonceStream
}

// newPeerContext derives a fresh peerContext for a known peer public key.
// encryptSeed and decryptSeed are the HKDF-derived per-direction nonce-
// stream seeds, see deriveNonceSeeds and SecureChannel.install.
func newPeerContext(localSecret *[32]byte, peerPublic *[32]byte, encryptSeed, decryptSeed []byte) *peerContext {
	return &peerContext{
		box:           crypto.NewPeerBox(localSecret, peerPublic),
		encryptStream: crypto.NewNonceStream(encryptSeed),
		decryptStream: crypto.NewNonceStream(decryptSeed),
	}
}

func (p *peerContext) encrypt(plaintext []byte) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	nonce := p.encryptStream.Next()
	return p.box.Seal(nil, plaintext, nonce)
}

func (p *peerContext) decrypt(ciphertext []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	nonce := p.decryptStream.Next()
	return p.box.Open(nil, ciphertext, nonce)
}
