// Package requestmux layers request/response correlation, retry, and an
// unsolicited-message queue on top of a securechannel.Channel. Every
// plaintext payload it sends or receives is framed as id||body: id == 0
// marks a notification nobody needs to correlate a reply to (the server's
// presence pushes, a client's heartbeat); nonzero id ties a reply to the
// request that produced it.
package requestmux

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/securechannel"
	"github.com/coldwire/coldwire/pkg/transport"
)

const (
	DefaultRetryLimit          = 3
	DefaultRequestTimeout      = 2 * time.Second
	DefaultUnsolicitedQueueLen = 128
)

// Unsolicited is a plaintext payload RequestMux could not correlate to a
// pending Request: either a fire-and-forget notification (ID == 0) or an
// incoming request awaiting a reply via Respond (ID != 0).
type Unsolicited struct {
	Peer transport.PeerAddress
	ID   uint16
	Body []byte
}

// Config configures a Mux.
type Config struct {
	// RetryLimit bounds how many attempts Request makes, the first send
	// included, before giving up with ErrTimeout. Default DefaultRetryLimit.
	RetryLimit int

	// RequestTimeout bounds how long Request waits for a reply per attempt.
	// Default DefaultRequestTimeout.
	RequestTimeout time.Duration

	// UnsolicitedQueueLen bounds the buffered Unsolicited channel. A full
	// queue causes new unsolicited arrivals to be dropped and logged.
	// Default DefaultUnsolicitedQueueLen.
	UnsolicitedQueueLen int

	LoggerFactory logging.LoggerFactory
}

// Mux multiplexes request/response traffic for many peers over one
// securechannel.Channel. The zero value is not usable; construct with New.
type Mux struct {
	channel        *securechannel.Channel
	retryLimit     int
	requestTimeout time.Duration
	log            logging.LeveledLogger

	mu       sync.Mutex
	counters map[string]uint16
	pending  map[string]map[uint16]chan []byte

	unsolicited chan Unsolicited
}

// New constructs a Mux over channel. Callers must wire channel's
// PlainHandler to the returned Mux's HandlePlain method, typically via a
// forwarding closure declared before the channel and assigned once both
// exist, since Mux needs the channel to send frames and the channel needs
// the Mux to receive them.
func New(channel *securechannel.Channel, cfg Config) *Mux {
	retryLimit := cfg.RetryLimit
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	queueLen := cfg.UnsolicitedQueueLen
	if queueLen <= 0 {
		queueLen = DefaultUnsolicitedQueueLen
	}

	m := &Mux{
		channel:        channel,
		retryLimit:     retryLimit,
		requestTimeout: requestTimeout,
		counters:       make(map[string]uint16),
		pending:        make(map[string]map[uint16]chan []byte),
		unsolicited:    make(chan Unsolicited, queueLen),
	}
	if cfg.LoggerFactory != nil {
		m.log = cfg.LoggerFactory.NewLogger("requestmux")
	}
	return m
}

// Unsolicited returns the channel of payloads that arrived without a
// matching pending Request: notifications (ID == 0) and incoming requests
// awaiting a Respond (ID != 0).
func (m *Mux) Unsolicited() <-chan Unsolicited {
	return m.unsolicited
}

// nextID allocates the next nonzero request id for peer, wrapping past 0.
func (m *Mux) nextID(peer transport.PeerAddress) uint16 {
	key := peer.Key()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.counters[key] + 1
	if id == 0 {
		id = 1
	}
	m.counters[key] = id
	return id
}

func (m *Mux) installPending(peer transport.PeerAddress, id uint16) chan []byte {
	key := peer.Key()
	ch := make(chan []byte, 1)
	m.mu.Lock()
	if m.pending[key] == nil {
		m.pending[key] = make(map[uint16]chan []byte)
	}
	m.pending[key][id] = ch
	m.mu.Unlock()
	return ch
}

func (m *Mux) removePending(peer transport.PeerAddress, id uint16) {
	key := peer.Key()
	m.mu.Lock()
	delete(m.pending[key], id)
	m.mu.Unlock()
}

// Request sends payload to peer and waits for its correlated reply, making at
// most RetryLimit attempts of RequestTimeout each. It never allocates id 0.
func (m *Mux) Request(ctx context.Context, payload []byte, peer transport.PeerAddress) ([]byte, error) {
	id := m.nextID(peer)
	frame := encodeFrame(id, payload)

	for attempt := 0; attempt < m.retryLimit; attempt++ {
		ch := m.installPending(peer, id)

		if err := m.channel.SendPlain(frame, peer); err != nil {
			m.removePending(peer, id)
			return nil, err
		}

		timer := time.NewTimer(m.requestTimeout)
		select {
		case body := <-ch:
			timer.Stop()
			return body, nil
		case <-ctx.Done():
			timer.Stop()
			m.removePending(peer, id)
			return nil, ctx.Err()
		case <-timer.C:
			m.removePending(peer, id)
			if m.log != nil {
				m.log.Warnf("request %d to %s timed out (attempt %d/%d)", id, peer, attempt+1, m.retryLimit)
			}
		}
	}

	return nil, ErrTimeout
}

// Notify sends a fire-and-forget frame (id 0) to peer, such as a client's
// periodic heartbeat. No reply is expected and none is waited for.
func (m *Mux) Notify(payload []byte, peer transport.PeerAddress) error {
	return m.channel.SendPlain(encodeFrame(0, payload), peer)
}

// Respond replies to an Unsolicited request with the same id, completing
// the correlation on the requester's side.
func (m *Mux) Respond(peer transport.PeerAddress, id uint16, payload []byte) error {
	return m.channel.SendPlain(encodeFrame(id, payload), peer)
}

// HandlePlain is the securechannel.PlainHandler that demultiplexes an
// inbound plaintext payload: a reply completes its pending Request slot, any
// frame and nothing pending falls through to the Unsolicited queue.
func (m *Mux) HandlePlain(data []byte, peer transport.PeerAddress) {
	id, body, err := decodeFrame(data)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("dropping malformed frame from %s: %v", peer, err)
		}
		return
	}

	if id != 0 {
		key := peer.Key()
		m.mu.Lock()
		ch := m.pending[key][id]
		if ch != nil {
			delete(m.pending[key], id)
		}
		m.mu.Unlock()

		if ch != nil {
			ch <- body
			return
		}
	}

	select {
	case m.unsolicited <- Unsolicited{Peer: peer, ID: id, Body: body}:
	default:
		if m.log != nil {
			m.log.Warn("unsolicited queue full, dropping message")
		}
	}
}

// Release discards peer's request counter and any pending requests, then
// delegates to the underlying SecureChannel.
func (m *Mux) Release(peer transport.PeerAddress) {
	key := peer.Key()
	m.mu.Lock()
	delete(m.counters, key)
	delete(m.pending, key)
	m.mu.Unlock()
	m.channel.Release(peer)
}
