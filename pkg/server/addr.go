package server

import "net"

// udpPort extracts the numeric port from a net.Addr for mDNS advertisement,
// or 0 if addr isn't a *net.UDPAddr (e.g. an in-memory test pipe).
func udpPort(addr net.Addr) int {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0
	}
	return udpAddr.Port
}
