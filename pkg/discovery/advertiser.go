package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// MDNSServer is the subset of *zeroconf.Server an Advertiser needs,
// abstracted so tests can substitute a fake.
type MDNSServer interface {
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Instance is the DNS-SD instance name. Defaults to "coldwire".
	Instance string

	// Port is the UDP port the chatroom server is listening on.
	Port int

	// Interfaces limits advertisement to specific network interfaces.
	// Nil advertises on all of them.
	Interfaces []net.Interface

	// ServerFactory overrides the zeroconf-backed registration, for tests.
	ServerFactory MDNSServerFactory

	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes the chatroom server's presence over mDNS.
type Advertiser struct {
	mu     sync.Mutex
	server MDNSServer
	log    logging.LeveledLogger
	closed bool
}

// NewAdvertiser registers the _chatroom._udp service and starts answering
// mDNS queries for it.
func NewAdvertiser(cfg AdvertiserConfig) (*Advertiser, error) {
	instance := cfg.Instance
	if instance == "" {
		instance = "coldwire"
	}

	factory := cfg.ServerFactory
	if factory == nil {
		factory = zeroconfServerFactory{}
	}

	txt := []string{fmt.Sprintf("protocol=%s", ProtocolVersion)}
	server, err := factory.Register(instance, ServiceName, ServiceDomain, cfg.Port, txt, cfg.Interfaces)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", ServiceName, err)
	}

	a := &Advertiser{server: server}
	if cfg.LoggerFactory != nil {
		a.log = cfg.LoggerFactory.NewLogger("discovery")
		a.log.Infof("advertising %s on port %d", ServiceName, cfg.Port)
	}
	return a, nil
}

// Close stops advertising. Safe to call more than once.
func (a *Advertiser) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.server.Shutdown()
}
