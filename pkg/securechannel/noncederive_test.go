package securechannel

import (
	"bytes"
	"testing"
)

func TestDeriveNonceSeedsAreSymmetric(t *testing.T) {
	var a, b [32]byte
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(i + 128)
	}

	encryptA, decryptA := deriveNonceSeeds(a, b)
	encryptB, decryptB := deriveNonceSeeds(b, a)

	if !bytes.Equal(encryptA, decryptB) {
		t.Error("A's encrypt seed must equal B's decrypt seed")
	}
	if !bytes.Equal(encryptB, decryptA) {
		t.Error("B's encrypt seed must equal A's decrypt seed")
	}
	if bytes.Equal(encryptA, encryptB) {
		t.Error("the two directions must not share a seed")
	}
}
