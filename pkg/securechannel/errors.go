package securechannel

import "errors"

var (
	// ErrNoSourceKey is logged by HandleRaw, which then drops the packet,
	// when a Msg envelope arrives from a peer no key exchange has installed
	// a symmetric context for.
	ErrNoSourceKey = errors.New("securechannel: no symmetric context for source peer")

	// ErrNoDestinationKey is returned by SendPlain when no symmetric context
	// has been installed for the destination peer yet.
	ErrNoDestinationKey = errors.New("securechannel: no symmetric context for destination peer")

	// ErrDecryptionFailed is logged by HandleRaw, which then drops the
	// packet, when an inbound Msg envelope fails authentication.
	ErrDecryptionFailed = errors.New("securechannel: decryption failed")

	// ErrHandshakeTimeout is returned by ExchangeKeyWith when no PeerKey
	// response arrives before the context deadline.
	ErrHandshakeTimeout = errors.New("securechannel: key exchange timed out")

	// ErrClosed is returned by ExchangeKeyWith and SendPlain once Close has
	// been called.
	ErrClosed = errors.New("securechannel: channel closed")
)
