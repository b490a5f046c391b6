package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultBrowseTimeout bounds how long Resolve waits for a server to answer.
const DefaultBrowseTimeout = 3 * time.Second

// MDNSBrowser is the subset of *zeroconf.Resolver a Resolver needs,
// abstracted so tests can substitute a fake.
type MDNSBrowser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

type zeroconfBrowser struct {
	resolver *zeroconf.Resolver
}

func newZeroconfBrowser() (*zeroconfBrowser, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfBrowser{resolver: r}, nil
}

func (z *zeroconfBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Browser overrides the zeroconf-backed browser, for tests.
	Browser MDNSBrowser

	LoggerFactory logging.LoggerFactory
}

// Resolver looks up the chatroom server's address via mDNS.
type Resolver struct {
	browser MDNSBrowser
	log     logging.LeveledLogger
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	browser := cfg.Browser
	if browser == nil {
		b, err := newZeroconfBrowser()
		if err != nil {
			return nil, fmt.Errorf("discovery: new resolver: %w", err)
		}
		browser = b
	}

	r := &Resolver{browser: browser}
	if cfg.LoggerFactory != nil {
		r.log = cfg.LoggerFactory.NewLogger("discovery")
	}
	return r, nil
}

// Resolved is the address a chatroom server was found at.
type Resolved struct {
	Addr *net.UDPAddr
}

// Resolve browses for the first answering _chatroom._udp service and
// returns its address, or ErrNotFound if none answers within timeout.
func (r *Resolver) Resolve(ctx context.Context, timeout time.Duration) (*Resolved, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := r.browser.Browse(ctx, ServiceName, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("discovery: browse %s: %w", ServiceName, err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return nil, ErrNotFound
			}
			addr := entryAddr(entry)
			if addr == nil {
				continue
			}
			if r.log != nil {
				r.log.Infof("resolved %s at %s", ServiceName, addr)
			}
			return &Resolved{Addr: addr}, nil
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

func entryAddr(entry *zeroconf.ServiceEntry) *net.UDPAddr {
	var ip net.IP
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0]
	default:
		return nil
	}
	return &net.UDPAddr{IP: ip, Port: entry.Port}
}
