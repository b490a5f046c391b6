package server

import (
	"github.com/coldwire/coldwire/pkg/crypto"
	"github.com/coldwire/coldwire/pkg/transport"
)

// OnlineState is the presence record the directory keeps for a logged-in
// user: the address it is reachable at and the public key SecureChannel has
// installed for that address.
type OnlineState struct {
	Addr   transport.PeerAddress
	PubKey [32]byte
}

// UserRecord is one registered account. Online is nil while the user is
// logged out.
type UserRecord struct {
	Name         string
	PasswordHash crypto.PasswordHash
	Online       *OnlineState
}
