package client

import (
	"errors"
	"time"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/requestmux"
)

// ErrInvalidOptions is returned by Validate when an Options value cannot
// produce a working client, most commonly a heartbeat cadence that could
// race the server's activity timeout.
var ErrInvalidOptions = errors.New("client: invalid options")

// Options configures a Client.
type Options struct {
	// ListenAddr is the local UDP address to bind. Empty means any free
	// port on all interfaces.
	ListenAddr string

	// ServerAddr is the directory server's address ("host:port"). Empty
	// triggers mDNS resolution via pkg/discovery.
	ServerAddr string

	// HeartbeatInterval is how often Login's heartbeat goroutine notifies
	// the server it is still alive. Must be comfortably shorter than the
	// server's own HeartbeatInterval; Validate enforces at most half.
	HeartbeatInterval time.Duration

	// ServerHeartbeatInterval is the server's own activity timeout, used
	// only to validate HeartbeatInterval against it.
	ServerHeartbeatInterval time.Duration

	RetryLimit     int
	RequestTimeout time.Duration

	LoggerFactory logging.LoggerFactory
}

// DefaultOptions returns sane defaults matching server.DefaultOptions's
// HeartbeatInterval.
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval:       15 * time.Second,
		ServerHeartbeatInterval: 30 * time.Second,
		RetryLimit:              requestmux.DefaultRetryLimit,
		RequestTimeout:          requestmux.DefaultRequestTimeout,
	}
}

// Validate reports whether opts describes a workable client configuration.
func (opts Options) Validate() error {
	if opts.HeartbeatInterval <= 0 {
		return ErrInvalidOptions
	}
	if opts.ServerHeartbeatInterval > 0 && opts.HeartbeatInterval*2 > opts.ServerHeartbeatInterval {
		return ErrInvalidOptions
	}
	if opts.RetryLimit < 0 {
		return ErrInvalidOptions
	}
	if opts.RequestTimeout <= 0 {
		return ErrInvalidOptions
	}
	return nil
}
