// Package client implements the peer-to-peer chat client: it maintains a
// local mirror of the directory server's roster, relays direct and
// broadcast messages straight to other peers over SecureChannel, and keeps
// its session alive with a periodic heartbeat to the server.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/crypto"
	"github.com/coldwire/coldwire/pkg/discovery"
	"github.com/coldwire/coldwire/pkg/requestmux"
	"github.com/coldwire/coldwire/pkg/securechannel"
	"github.com/coldwire/coldwire/pkg/transport"
)

// Client is the chat session coordinator. The zero value is not usable;
// construct with New.
type Client struct {
	opts Options
	log  logging.LeveledLogger
	sink EventSink

	udp        *transport.UDP
	channel    *securechannel.Channel
	mux        *requestmux.Mux
	serverAddr transport.PeerAddress

	mu        sync.RWMutex
	users     map[string]*PeerRecord
	addr2user map[string]string // transport.PeerAddress.Key() -> username

	historyMu sync.Mutex
	group     []ChatEntry
	perPeer   map[string][]ChatEntry

	personalMu sync.Mutex
	personal   *PersonalInfo

	heartbeatMu     sync.Mutex
	heartbeatCancel context.CancelFunc

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New binds a local socket and constructs the SecureChannel/RequestMux
// layers, but does not yet contact the server. Call Start to connect.
func New(opts Options, sink EventSink) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		opts:      opts,
		sink:      sink,
		users:     make(map[string]*PeerRecord),
		addr2user: make(map[string]string),
		perPeer:   make(map[string][]ChatEntry),
		closeCh:   make(chan struct{}),
	}
	if opts.LoggerFactory != nil {
		c.log = opts.LoggerFactory.NewLogger("client")
	}

	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	udp, err := transport.NewUDP(transport.UDPConfig{
		ListenAddr:     opts.ListenAddr,
		MessageHandler: func(msg *transport.ReceivedMessage) { c.channel.HandleRaw(msg) },
		LoggerFactory:  opts.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}
	c.udp = udp

	c.channel = securechannel.New(securechannel.Config{
		Sender:        udp,
		KeyPair:       keyPair,
		PlainHandler:  func(data []byte, peer transport.PeerAddress) { c.mux.HandlePlain(data, peer) },
		LoggerFactory: opts.LoggerFactory,
	})
	c.mux = requestmux.New(c.channel, requestmux.Config{
		RetryLimit:     opts.RetryLimit,
		RequestTimeout: opts.RequestTimeout,
		LoggerFactory:  opts.LoggerFactory,
	})

	return c, nil
}

// Start resolves the server address (via Options.ServerAddr, or mDNS if
// empty), performs the key exchange, and begins the receive loop. ctx
// bounds only the handshake; the receive loop runs until Stop.
func (c *Client) Start(ctx context.Context) error {
	if err := c.udp.Start(); err != nil {
		return err
	}

	addr, err := c.resolveServerAddr(ctx)
	if err != nil {
		c.udp.Stop()
		return err
	}
	c.serverAddr = addr

	handshakeCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()
	if err := c.channel.ExchangeKeyWith(handshakeCtx, c.serverAddr); err != nil {
		c.udp.Stop()
		return fmt.Errorf("client: key exchange with server: %w", err)
	}

	c.wg.Add(1)
	go c.receiveLoop()

	if c.log != nil {
		c.log.Infof("connected to server at %s", c.serverAddr)
	}
	return nil
}

func (c *Client) resolveServerAddr(ctx context.Context) (transport.PeerAddress, error) {
	if c.opts.ServerAddr != "" {
		return transport.UDPAddrFromString(c.opts.ServerAddr)
	}

	resolver, err := discovery.NewResolver(discovery.ResolverConfig{LoggerFactory: c.opts.LoggerFactory})
	if err != nil {
		return transport.PeerAddress{}, fmt.Errorf("client: discovery unavailable and no ServerAddr set: %w", err)
	}
	resolved, err := resolver.Resolve(ctx, c.opts.RequestTimeout)
	if err != nil {
		return transport.PeerAddress{}, err
	}
	return transport.NewUDPPeerAddress(resolved.Addr), nil
}

// Stop cancels the heartbeat and receive loop and closes the socket.
func (c *Client) Stop() error {
	close(c.closeCh)
	c.cancelHeartbeat()
	err := c.udp.Stop()
	c.wg.Wait()
	return err
}

// LocalAddr returns the address the client's socket is bound to.
func (c *Client) LocalAddr() net.Addr {
	return c.udp.LocalAddr()
}

// Username returns the logged-in username, or "" if not logged in.
func (c *Client) Username() string {
	c.personalMu.Lock()
	defer c.personalMu.Unlock()
	if c.personal == nil {
		return ""
	}
	return c.personal.Username
}

func (c *Client) receiveLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.closeCh:
			return
		case u, ok := <-c.mux.Unsolicited():
			if !ok {
				if c.sink != nil {
					c.sink.ConnectionLost()
				}
				return
			}
			c.handleUnsolicited(u)
		}
	}
}

func (c *Client) handleUnsolicited(u requestmux.Unsolicited) {
	if u.Peer.Key() == c.serverAddr.Key() {
		c.handleNotification(u.Body)
		return
	}
	c.handleDirectMessage(u.Body, u.Peer)
}

func (c *Client) cancelHeartbeat() {
	c.heartbeatMu.Lock()
	defer c.heartbeatMu.Unlock()
	if c.heartbeatCancel != nil {
		c.heartbeatCancel()
		c.heartbeatCancel = nil
	}
}

func (c *Client) startHeartbeat() {
	c.cancelHeartbeat()

	ctx, cancel := context.WithCancel(context.Background())
	c.heartbeatMu.Lock()
	c.heartbeatCancel = cancel
	c.heartbeatMu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.closeCh:
				return
			case <-ticker.C:
				if err := c.mux.Notify(encodeHeartbeat(), c.serverAddr); err != nil && c.log != nil {
					c.log.Warnf("heartbeat send failed: %v", err)
				}
			}
		}
	}()
}
