package securechannel

import (
	"encoding/hex"

	"github.com/coldwire/coldwire/pkg/crypto"
)

// deriveNonceSeeds turns a pair of static Curve25519 public keys into the
// two direction-specific nonce-stream seeds for that pair. directionSeed is
// keyed purely by (sender, receiver), never by which end is "local", so
// both endpoints derive the exact same seed for a given direction: the
// sender's encryptSeed for that direction equals the receiver's
// decryptSeed, since both compute directionSeed(sender, receiver).
func deriveNonceSeeds(localPublic, peerPublic [32]byte) (encryptSeed, decryptSeed []byte) {
	encryptSeed = directionSeed(localPublic, peerPublic)
	decryptSeed = directionSeed(peerPublic, localPublic)
	return encryptSeed, decryptSeed
}

func directionSeed(sender, receiver [32]byte) []byte {
	ikm := append(append([]byte{}, sender[:]...), receiver[:]...)
	seed, err := crypto.HKDFSHA256(ikm, nil, []byte("securechannel-nonce-stream"), 32)
	if err != nil {
		panic("securechannel: HKDFSHA256 with a fixed length must not fail: " + err.Error())
	}
	return seed
}

// keyFingerprint formats a short, log-safe identifier for a public key: the
// first 8 bytes of its SHA-256 digest, hex-encoded. Logging this instead of
// the full key avoids putting raw key material in log output.
func keyFingerprint(pub [32]byte) string {
	digest := crypto.SHA256(pub[:])
	return hex.EncodeToString(digest[:8])
}
