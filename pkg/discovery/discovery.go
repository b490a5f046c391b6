// Package discovery advertises and resolves the chatroom directory server
// over mDNS/DNS-SD (_chatroom._udp.local.), so a LAN client can find the
// server without a configured address. It wraps grandcat/zeroconf behind
// small interfaces so tests can substitute a fake without touching a real
// network.
package discovery

import "errors"

// ServiceName is the DNS-SD service type advertised for the chatroom server.
const ServiceName = "_chatroom._udp"

// ServiceDomain is the mDNS domain every lookup and advertisement uses.
const ServiceDomain = "local."

// ProtocolVersion is carried in the advertised TXT record so a future
// incompatible wire change can be detected before a client tries to talk to
// a server it can't speak to.
const ProtocolVersion = "1"

// ErrClosed reports use of a closed discovery component. No Advertiser or
// Resolver method returns it: Advertiser.Close is idempotent and Resolver
// has no Close.
var ErrClosed = errors.New("discovery: closed")

// ErrNotFound is returned by Resolve when no server answers within the
// browse timeout.
var ErrNotFound = errors.New("discovery: no chatroom server found")
