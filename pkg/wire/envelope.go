// Package wire defines the protocol value types exchanged between chat peers
// and between a client and the directory server, along with their
// wirecodec.Writer/Reader bindings. Every type here is a pure value: no I/O,
// no locks, safe to encode and decode concurrently from multiple goroutines.
package wire

import (
	"errors"
	"fmt"

	"github.com/coldwire/coldwire/pkg/wirecodec"
)

// ErrUnknownVariant is wrapped, together with the offending tag, by the
// error a decoder returns when a tagged union's discriminant byte does not
// match any known variant; test for it with errors.Is.
var ErrUnknownVariant = errors.New("wire: unknown variant tag")

// EnvelopeKind tags which of the three SecureChannel envelope variants a
// packet carries.
type EnvelopeKind uint8

const (
	EnvelopeMyKey EnvelopeKind = iota
	EnvelopePeerKey
	EnvelopeMsg
)

// Envelope is the outermost framing SecureChannel puts on every datagram.
// MyKey and PeerKey carry a 32-byte Curve25519 public key during key
// exchange; Msg carries an opaque authenticated ciphertext.
type Envelope struct {
	Kind   EnvelopeKind
	Key    [32]byte // valid when Kind is EnvelopeMyKey or EnvelopePeerKey
	Cipher []byte   // valid when Kind is EnvelopeMsg
}

// Encode appends the envelope's wire representation to w.
func (e Envelope) Encode(w *wirecodec.Writer) {
	w.WriteUint8(uint8(e.Kind))
	switch e.Kind {
	case EnvelopeMyKey, EnvelopePeerKey:
		w.WriteFixed(e.Key[:])
	case EnvelopeMsg:
		w.WriteBytes(e.Cipher)
	}
}

// DecodeEnvelope reads an Envelope from r.
func DecodeEnvelope(r *wirecodec.Reader) (Envelope, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return Envelope{}, err
	}

	switch EnvelopeKind(tag) {
	case EnvelopeMyKey, EnvelopePeerKey:
		key, err := r.ReadFixed(32)
		if err != nil {
			return Envelope{}, err
		}
		var e Envelope
		e.Kind = EnvelopeKind(tag)
		copy(e.Key[:], key)
		return e, nil
	case EnvelopeMsg:
		cipher, err := r.ReadBytes()
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Kind: EnvelopeMsg, Cipher: cipher}, nil
	default:
		return Envelope{}, fmt.Errorf("%w: envelope tag %d", ErrUnknownVariant, tag)
	}
}

// EncodeEnvelope is a convenience wrapper that returns the encoded bytes.
func EncodeEnvelope(e Envelope) []byte {
	w := wirecodec.NewWriter()
	e.Encode(w)
	return w.Bytes()
}
