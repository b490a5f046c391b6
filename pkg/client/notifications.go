package client

import (
	"time"

	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
	"github.com/coldwire/coldwire/pkg/wirecodec"
)

func (c *Client) handleNotification(body []byte) {
	notif, err := wire.DecodeNotification(wirecodec.NewReader(body))
	if err != nil {
		if c.log != nil {
			c.log.Warnf("dropping malformed notification: %v", err)
		}
		return
	}

	switch notif.Kind {
	case wire.NotificationOnline:
		c.handleOnline(notif)
	case wire.NotificationOffline:
		c.handleOffline(notif)
	}
}

func (c *Client) handleOnline(notif wire.Notification) {
	peerAddr, err := transport.UDPAddrFromString(notif.Info.Addr)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("online notification for %q has unparsable address %q: %v", notif.Name, notif.Info.Addr, err)
		}
		return
	}

	c.mu.Lock()
	rec, ok := c.users[notif.Name]
	if !ok {
		rec = &PeerRecord{Name: notif.Name}
		c.users[notif.Name] = rec
	}
	rec.Online = &OnlineRecord{Addr: peerAddr, PubKey: notif.Info.PubKey}
	c.addr2user[peerAddr.Key()] = notif.Name
	c.mu.Unlock()

	c.channel.InstallKnownKey(peerAddr, notif.Info.PubKey)

	entry := ChatEntry{Timestamp: notif.Timestamp, Name: notif.Name, Kind: EntryOnline}
	c.appendGroup(entry)
	c.appendPerPeer(notif.Name, entry)

	if c.sink != nil {
		c.sink.OnPresence(notif.Name, true)
	}
}

func (c *Client) handleOffline(notif wire.Notification) {
	c.mu.Lock()
	rec, ok := c.users[notif.Name]
	var addr transport.PeerAddress
	if ok && rec.Online != nil {
		addr = rec.Online.Addr
		rec.Online = nil
	}
	if addr.IsValid() {
		delete(c.addr2user, addr.Key())
	}
	c.mu.Unlock()

	if addr.IsValid() {
		c.channel.Release(addr)
	}

	entry := ChatEntry{Timestamp: notif.Timestamp, Name: notif.Name, Kind: EntryOffline}
	c.appendGroup(entry)
	c.appendPerPeer(notif.Name, entry)

	if c.sink != nil {
		c.sink.OnPresence(notif.Name, false)
	}
}

func (c *Client) handleDirectMessage(body []byte, peer transport.PeerAddress) {
	msg, err := wire.DecodeChatMessage(wirecodec.NewReader(body))
	if err != nil {
		if c.log != nil {
			c.log.Warnf("dropping malformed message from %s: %v", peer, err)
		}
		return
	}

	c.mu.RLock()
	name, ok := c.addr2user[peer.Key()]
	c.mu.RUnlock()
	if !ok {
		if c.log != nil {
			c.log.Warnf("message from unknown peer %s dropped", peer)
		}
		return
	}

	entry := ChatEntry{Timestamp: msg.Timestamp, Name: name, Kind: EntryMessage, ToAll: msg.ToAll, Text: msg.Text}
	if msg.ToAll {
		c.appendGroup(entry)
	} else {
		c.appendPerPeer(name, entry)
	}
}

func nowUnix() int64 {
	return time.Now().UTC().Unix()
}
