package transport

import (
	"fmt"
	"net"
)

// PeerAddress identifies a remote peer by its datagram network address.
type PeerAddress struct {
	Addr net.Addr
}

// String returns a human-readable representation of the peer address.
func (p PeerAddress) String() string {
	if p.Addr == nil {
		return "<nil>"
	}
	return p.Addr.String()
}

// IsValid returns true if the peer address carries a non-nil network address.
func (p PeerAddress) IsValid() bool {
	return p.Addr != nil
}

// Key returns a comparable, map-friendly representation of the address.
// net.Addr implementations are not guaranteed comparable across types, so
// callers that index peers in a map should key on this string form.
func (p PeerAddress) Key() string {
	if p.Addr == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s", p.Addr.Network(), p.Addr.String())
}

// NewUDPPeerAddress wraps a resolved UDP address as a PeerAddress.
func NewUDPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{Addr: addr}
}

// UDPAddrFromString parses an address string ("host:port") into a PeerAddress.
func UDPAddrFromString(addr string) (PeerAddress, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return PeerAddress{}, err
	}
	return NewUDPPeerAddress(udpAddr), nil
}
