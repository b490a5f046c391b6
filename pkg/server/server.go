// Package server implements the chatroom directory: user registration and
// login, presence tracking, activity-timeout-driven logout, and the
// online/offline broadcasts that let clients discover each other's
// addresses and public keys without talking to the server for every lookup.
package server

import (
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/discovery"
	"github.com/coldwire/coldwire/pkg/securechannel"
	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
	"github.com/coldwire/coldwire/pkg/wirecodec"

	"github.com/coldwire/coldwire/pkg/requestmux"

	"github.com/coldwire/coldwire/pkg/crypto"
)

// Server is the chatroom directory and session manager. The zero value is
// not usable; construct with New.
type Server struct {
	opts Options
	log  logging.LeveledLogger

	udp       *transport.UDP
	channel   *securechannel.Channel
	mux       *requestmux.Mux
	advertise *discovery.Advertiser

	usersMu sync.RWMutex
	users   map[string]*UserRecord

	addrMu    sync.RWMutex
	addr2user map[string]string // transport.PeerAddress.Key() -> username

	timerMu sync.RWMutex
	timers  map[string]*time.Timer // username -> activity timer

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New constructs a Server bound per opts but does not yet start serving.
func New(opts Options) (*Server, error) {
	return newWithConn(opts, nil)
}

// newWithConn builds a Server the same way New does, but over a caller-
// supplied net.PacketConn (e.g. an in-memory transport.PipeFactory
// connection) instead of binding a real socket. Exported to tests via
// newForTest.
func newWithConn(opts Options, conn net.PacketConn) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		users:     make(map[string]*UserRecord),
		addr2user: make(map[string]string),
		timers:    make(map[string]*time.Timer),
		closeCh:   make(chan struct{}),
	}
	if opts.LoggerFactory != nil {
		s.log = opts.LoggerFactory.NewLogger("server")
	}

	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	udp, err := transport.NewUDP(transport.UDPConfig{
		Conn:           conn,
		ListenAddr:     opts.ListenAddr,
		MessageHandler: func(msg *transport.ReceivedMessage) { s.channel.HandleRaw(msg) },
		LoggerFactory:  opts.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}
	s.udp = udp

	s.channel = securechannel.New(securechannel.Config{
		Sender:        udp,
		KeyPair:       keyPair,
		PlainHandler:  func(data []byte, peer transport.PeerAddress) { s.mux.HandlePlain(data, peer) },
		LoggerFactory: opts.LoggerFactory,
	})
	s.mux = requestmux.New(s.channel, requestmux.Config{
		RetryLimit:     opts.RetryLimit,
		RequestTimeout: opts.RequestTimeout,
		LoggerFactory:  opts.LoggerFactory,
	})

	return s, nil
}

// Start begins the socket's read loop and the command-processing loop (the
// socket itself is already bound by New), and (if
// Options.Advertise is set) advertises the server over mDNS.
func (s *Server) Start() error {
	if err := s.udp.Start(); err != nil {
		return err
	}

	if s.opts.Advertise {
		adv, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Port:          udpPort(s.udp.LocalAddr()),
			LoggerFactory: s.opts.LoggerFactory,
		})
		if err != nil {
			if s.log != nil {
				s.log.Warnf("mDNS advertise disabled: %v", err)
			}
		} else {
			s.advertise = adv
		}
	}

	s.wg.Add(1)
	go s.commandLoop()

	if s.log != nil {
		s.log.Infof("server listening on %s", s.udp.LocalAddr())
	}
	return nil
}

// Stop halts the command loop, stops mDNS advertisement, cancels every
// pending activity timer, and closes the socket.
func (s *Server) Stop() error {
	close(s.closeCh)

	if s.advertise != nil {
		s.advertise.Close()
	}

	s.timerMu.Lock()
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
	s.timerMu.Unlock()

	err := s.udp.Stop()
	s.wg.Wait()
	return err
}

// LocalAddr returns the address the server's socket is bound to.
func (s *Server) LocalAddr() net.Addr {
	return s.udp.LocalAddr()
}

func (s *Server) commandLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closeCh:
			return
		case u, ok := <-s.mux.Unsolicited():
			if !ok {
				return
			}
			s.handleUnsolicited(u)
		}
	}
}

func (s *Server) handleUnsolicited(u requestmux.Unsolicited) {
	cmd, err := wire.DecodeCommand(wirecodec.NewReader(u.Body))
	if err != nil {
		if s.log != nil {
			s.log.Warnf("dropping malformed command from %s: %v", u.Peer, err)
		}
		return
	}

	switch cmd.Kind {
	case wire.CommandRegister:
		s.handleRegister(u, cmd)
	case wire.CommandLogin:
		s.handleLogin(u, cmd)
	case wire.CommandChangePassword:
		s.handleChangePassword(u, cmd)
	case wire.CommandGetChatroomStatus:
		s.handleGetChatroomStatus(u)
	case wire.CommandHeartbeat:
		s.handleHeartbeat(u)
	case wire.CommandLogout:
		s.handleLogout(u)
	}
}

func (s *Server) reply(u requestmux.Unsolicited, resp wire.Response) {
	w := wirecodec.NewWriter()
	resp.Encode(w)
	if err := s.mux.Respond(u.Peer, u.ID, w.Bytes()); err != nil && s.log != nil {
		s.log.Warnf("reply to %s failed: %v", u.Peer, err)
	}
}
