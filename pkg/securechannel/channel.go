// Package securechannel implements the encrypted datagram layer of the chat
// protocol: a long-lived local keypair, a per-peer key-exchange handshake,
// and per-peer authenticated encryption over an arbitrary datagram sender.
//
// Nonces are never transmitted. Each peer gets two independent deterministic
// nonce streams, one per direction, seeded by HKDF-SHA256 over the two
// endpoints' public keys (see deriveNonceSeeds), so both sides derive the
// same nonce sequence without coordination.
// This only holds if packets between a given pair are sent and received in
// the same order they were produced; SecureChannel does not itself detect or
// recover from reordering or loss: it logs each decryption failure, drops
// the packet, and never re-exchanges keys on its own.
package securechannel

import (
	"context"
	"net"
	"sync"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/crypto"
	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
	"github.com/coldwire/coldwire/pkg/wirecodec"
)

// Sender is the minimal datagram transport SecureChannel needs. transport.UDP
// and transport.PipeFactory-backed connections both satisfy it.
type Sender interface {
	Send(data []byte, addr net.Addr) error
	LocalAddr() net.Addr
}

// PlainHandler receives one decrypted payload and the peer it arrived from.
// It is called synchronously from whatever goroutine delivers the raw
// packet (typically a transport's read loop), so it must not block.
type PlainHandler func(data []byte, peer transport.PeerAddress)

// KeyEvent is emitted on the KeyEvents channel whenever a peer's public key
// is installed or refreshed, letting higher layers (e.g. the server's
// presence broadcast) react to newly-known peers.
type KeyEvent struct {
	Peer      transport.PeerAddress
	PublicKey [32]byte
}

// Config configures a new Channel.
type Config struct {
	Sender        Sender
	KeyPair       *crypto.KeyPair
	PlainHandler  PlainHandler
	LoggerFactory logging.LoggerFactory
}

// Channel is the SecureChannel: it owns the local keypair and every known
// peer's symmetric context, and turns a raw datagram sender into an
// encrypted point-to-point transport.
type Channel struct {
	sender  Sender
	keyPair *crypto.KeyPair
	handler PlainHandler
	log     logging.LeveledLogger

	mu       sync.RWMutex
	contexts map[string]*peerContext
	addrs    map[string]transport.PeerAddress
	pubKeys  map[string][32]byte
	closed   bool

	waitersMu sync.Mutex
	waiters   map[string][]chan struct{}

	keyEvents chan KeyEvent
}

// New constructs a Channel. The caller is responsible for wiring HandleRaw
// as the message handler of the underlying transport.
func New(cfg Config) *Channel {
	c := &Channel{
		sender:    cfg.Sender,
		keyPair:   cfg.KeyPair,
		handler:   cfg.PlainHandler,
		contexts:  make(map[string]*peerContext),
		addrs:     make(map[string]transport.PeerAddress),
		pubKeys:   make(map[string][32]byte),
		waiters:   make(map[string][]chan struct{}),
		keyEvents: make(chan KeyEvent, 64),
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("securechannel")
	}
	return c
}

// LocalPublicKey returns this channel's own public key.
func (c *Channel) LocalPublicKey() [32]byte {
	return c.keyPair.Public
}

// KeyEvents returns the channel that reports every installed or refreshed
// peer public key.
func (c *Channel) KeyEvents() <-chan KeyEvent {
	return c.keyEvents
}

// HandleRaw is a transport.MessageHandler: it decodes the envelope, runs the
// key-exchange state machine, and for Msg envelopes decrypts and forwards
// the plaintext to the configured PlainHandler.
func (c *Channel) HandleRaw(msg *transport.ReceivedMessage) {
	env, err := wire.DecodeEnvelope(wirecodec.NewReader(msg.Data))
	if err != nil {
		if c.log != nil {
			c.log.Warnf("dropping malformed envelope from %s: %v", msg.PeerAddr, err)
		}
		return
	}

	switch env.Kind {
	case wire.EnvelopeMyKey:
		c.install(msg.PeerAddr, env.Key)
		c.sendEnvelope(wire.Envelope{Kind: wire.EnvelopePeerKey, Key: c.keyPair.Public}, msg.PeerAddr)
	case wire.EnvelopePeerKey:
		c.install(msg.PeerAddr, env.Key)
		c.wake(msg.PeerAddr)
	case wire.EnvelopeMsg:
		c.recvMsg(env.Cipher, msg.PeerAddr)
	}
}

func (c *Channel) recvMsg(cipher []byte, peer transport.PeerAddress) {
	c.mu.RLock()
	pc := c.contexts[peer.Key()]
	c.mu.RUnlock()

	if pc == nil {
		if c.log != nil {
			c.log.Warnf("%v from %s", ErrNoSourceKey, peer)
		}
		return
	}

	plain, err := pc.decrypt(cipher)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("%v from %s", ErrDecryptionFailed, peer)
		}
		return
	}

	if c.handler != nil {
		c.handler(plain, peer)
	}
}

// install replaces any prior entry for peer with a fresh symmetric context
// derived from the newly observed public key, and emits a KeyEvent.
func (c *Channel) install(peer transport.PeerAddress, peerPublic [32]byte) {
	key := peer.Key()
	encryptSeed, decryptSeed := deriveNonceSeeds(c.keyPair.Public, peerPublic)
	pc := newPeerContext(&c.keyPair.Secret, &peerPublic, encryptSeed, decryptSeed)

	c.mu.Lock()
	c.contexts[key] = pc
	c.addrs[key] = peer
	c.pubKeys[key] = peerPublic
	c.mu.Unlock()

	if c.log != nil {
		c.log.Debugf("installed key %s for %s", keyFingerprint(peerPublic), peer)
	}

	select {
	case c.keyEvents <- KeyEvent{Peer: peer, PublicKey: peerPublic}:
	default:
		if c.log != nil {
			c.log.Warn("key event channel full, dropping event")
		}
	}
}

// InstallKnownKey installs peer's public key without running the MyKey/
// PeerKey handshake, for when a trusted third party (the directory server)
// has already vouched for the key, e.g. in an Online presence notification.
func (c *Channel) InstallKnownKey(peer transport.PeerAddress, peerPublic [32]byte) {
	c.install(peer, peerPublic)
}

// Release discards peer's symmetric context and public key. A later packet
// from peer requires a fresh key exchange.
func (c *Channel) Release(peer transport.PeerAddress) {
	key := peer.Key()
	c.mu.Lock()
	delete(c.contexts, key)
	delete(c.addrs, key)
	delete(c.pubKeys, key)
	c.mu.Unlock()
}

// PeerPublicKey returns the installed public key for peer, if any.
func (c *Channel) PeerPublicKey(peer transport.PeerAddress) ([32]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.pubKeys[peer.Key()]
	return k, ok
}

// HasKey reports whether a symmetric context is installed for peer.
func (c *Channel) HasKey(peer transport.PeerAddress) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.contexts[peer.Key()]
	return ok
}

func (c *Channel) sendEnvelope(env wire.Envelope, peer transport.PeerAddress) error {
	w := wirecodec.NewWriter()
	env.Encode(w)
	return c.sender.Send(w.Bytes(), peer.Addr)
}

// ExchangeKeyWith performs (or waits out) a key exchange with peer: it sends
// MyKey(local public) and blocks until a PeerKey reply installs a key for
// peer, ctx is cancelled, or ErrClosed/ErrHandshakeTimeout applies. A second
// call once a key is already installed returns immediately.
func (c *Channel) ExchangeKeyWith(ctx context.Context, peer transport.PeerAddress) error {
	if c.HasKey(peer) {
		return nil
	}

	waitCh := c.registerWaiter(peer)

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	if err := c.sendEnvelope(wire.Envelope{Kind: wire.EnvelopeMyKey, Key: c.keyPair.Public}, peer); err != nil {
		return err
	}

	select {
	case <-waitCh:
		return nil
	case <-ctx.Done():
		return ErrHandshakeTimeout
	}
}

func (c *Channel) registerWaiter(peer transport.PeerAddress) <-chan struct{} {
	ch := make(chan struct{})
	key := peer.Key()
	c.waitersMu.Lock()
	c.waiters[key] = append(c.waiters[key], ch)
	c.waitersMu.Unlock()
	return ch
}

func (c *Channel) wake(peer transport.PeerAddress) {
	key := peer.Key()
	c.waitersMu.Lock()
	waiters := c.waiters[key]
	delete(c.waiters, key)
	c.waitersMu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// SendPlain encrypts data under peer's symmetric context and sends it.
func (c *Channel) SendPlain(data []byte, peer transport.PeerAddress) error {
	c.mu.RLock()
	pc := c.contexts[peer.Key()]
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if pc == nil {
		return ErrNoDestinationKey
	}

	cipher := pc.encrypt(data)
	return c.sendEnvelope(wire.Envelope{Kind: wire.EnvelopeMsg, Cipher: cipher}, peer)
}

// Close marks the channel closed; subsequent ExchangeKeyWith/SendPlain calls
// fail with ErrClosed. It does not close the underlying Sender.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
