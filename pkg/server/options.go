package server

import (
	"errors"
	"time"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/requestmux"
	"github.com/coldwire/coldwire/pkg/transport"
)

// ErrInvalidOptions is returned by Validate when an Options value cannot
// produce a working server.
var ErrInvalidOptions = errors.New("server: invalid options")

// Options configures a Server.
type Options struct {
	// ListenAddr is the UDP address to bind, e.g. ":5988". Empty means any
	// free port on all interfaces.
	ListenAddr string

	// HeartbeatInterval is how long a logged-in user may go without a
	// Heartbeat before its activity timer expires the session.
	HeartbeatInterval time.Duration

	// Advertise enables mDNS advertisement of this server via pkg/discovery.
	Advertise bool

	RetryLimit     int
	RequestTimeout time.Duration

	LoggerFactory logging.LoggerFactory
}

// DefaultOptions returns sane defaults for a LAN deployment.
func DefaultOptions() Options {
	return Options{
		ListenAddr:        "",
		HeartbeatInterval: 30 * time.Second,
		Advertise:         true,
		RetryLimit:        requestmux.DefaultRetryLimit,
		RequestTimeout:    requestmux.DefaultRequestTimeout,
	}
}

// Validate reports whether opts describes a workable server configuration.
func (opts Options) Validate() error {
	if opts.HeartbeatInterval <= 0 {
		return ErrInvalidOptions
	}
	if opts.RetryLimit < 0 {
		return ErrInvalidOptions
	}
	if opts.RequestTimeout <= 0 {
		return ErrInvalidOptions
	}
	if opts.ListenAddr != "" {
		if _, err := transport.UDPAddrFromString(opts.ListenAddr); err != nil {
			return ErrInvalidOptions
		}
	}
	return nil
}
