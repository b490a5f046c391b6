package client

import "github.com/coldwire/coldwire/pkg/transport"

// OnlineRecord is what the client knows about a peer it could reach
// directly: its address and the public key SecureChannel has installed for
// that address.
type OnlineRecord struct {
	Addr   transport.PeerAddress
	PubKey [32]byte
}

// PeerRecord is one entry of the local mirror of the directory server's
// roster. Online is nil for a registered user who is currently offline.
type PeerRecord struct {
	Name   string
	Online *OnlineRecord
}

// PersonalInfo is set once Login succeeds and cleared on Logout.
type PersonalInfo struct {
	Username string
}

// EntryKind tags what kind of event a ChatEntry records.
type EntryKind uint8

const (
	EntryMessage EntryKind = iota
	EntryOnline
	EntryOffline
)

// ChatEntry is one line of history: either a chat message or a presence
// change, recorded in the group history and/or a per-peer history depending
// on whether it was addressed to everyone or to one user.
type ChatEntry struct {
	Timestamp int64
	Name      string
	Kind      EntryKind
	ToAll     bool
	Text      string
}

// EventSink receives live updates as the client processes inbound traffic.
// Implementations must not block; Ok to be nil, in which case events are
// simply dropped.
type EventSink interface {
	// OnPresence fires when a user comes online or goes offline.
	OnPresence(name string, online bool)

	// OnMessage fires for every ChatEntry appended to any history: chat
	// messages, the user's own included, and presence entries. A presence
	// entry is appended to both the group and the per-peer history, so it
	// fires twice.
	OnMessage(entry ChatEntry)

	// ConnectionLost fires once the receive loop exits because the
	// underlying Mux's unsolicited channel was closed.
	ConnectionLost()
}
