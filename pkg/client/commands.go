package client

import (
	"context"

	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
	"github.com/coldwire/coldwire/pkg/wirecodec"
)

func (c *Client) request(ctx context.Context, cmd wire.Command) (wire.Response, error) {
	w := wirecodec.NewWriter()
	cmd.Encode(w)

	raw, err := c.mux.Request(ctx, w.Bytes(), c.serverAddr)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.DecodeResponse(wirecodec.NewReader(raw))
}

func encodeHeartbeat() []byte {
	w := wirecodec.NewWriter()
	wire.Command{Kind: wire.CommandHeartbeat}.Encode(w)
	return w.Bytes()
}

// Register asks the server to create a new account.
func (c *Client) Register(ctx context.Context, username string, password []byte) error {
	resp, err := c.request(ctx, wire.Command{Kind: wire.CommandRegister, Username: username, Password: password})
	if err != nil {
		return err
	}
	if !resp.Ok {
		return errorFromCode(resp.Err)
	}
	return nil
}

// Login authenticates, rebuilds the local roster from the server's
// snapshot, installs every online peer's public key, and starts the
// periodic heartbeat that keeps the session alive.
func (c *Client) Login(ctx context.Context, username string, password []byte) error {
	resp, err := c.request(ctx, wire.Command{Kind: wire.CommandLogin, Username: username, Password: password})
	if err != nil {
		return err
	}
	if !resp.Ok {
		return errorFromCode(resp.Err)
	}

	c.applySnapshot(resp.Data.Users)

	c.personalMu.Lock()
	c.personal = &PersonalInfo{Username: username}
	c.personalMu.Unlock()

	c.startHeartbeat()
	return nil
}

// ChangePassword replaces the logged-in user's password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	resp, err := c.request(ctx, wire.Command{Kind: wire.CommandChangePassword, OldPassword: oldPassword, NewPassword: newPassword})
	if err != nil {
		return err
	}
	if !resp.Ok {
		return errorFromCode(resp.Err)
	}
	return nil
}

// FetchChatroomStatus refreshes the local roster from the server.
func (c *Client) FetchChatroomStatus(ctx context.Context) error {
	resp, err := c.request(ctx, wire.Command{Kind: wire.CommandGetChatroomStatus})
	if err != nil {
		return err
	}
	if !resp.Ok {
		return errorFromCode(resp.Err)
	}
	c.applySnapshot(resp.Data.Users)
	return nil
}

// Logout best-effort informs the server the session is ending, then clears
// local login state and stops the heartbeat regardless of whether the
// server could be reached.
func (c *Client) Logout(ctx context.Context) error {
	_, _ = c.request(ctx, wire.Command{Kind: wire.CommandLogout})

	c.personalMu.Lock()
	c.personal = nil
	c.personalMu.Unlock()

	c.cancelHeartbeat()
	return nil
}

// Say sends a chat message. An empty target broadcasts to every other
// online user; a non-empty target sends directly to that user.
func (c *Client) Say(ctx context.Context, text, target string) error {
	username := c.Username()
	if username == "" {
		return ErrNotLoggedIn
	}

	if target != "" {
		c.mu.RLock()
		rec, ok := c.users[target]
		c.mu.RUnlock()
		if !ok {
			return ErrUserNotFound
		}
		if rec.Online == nil {
			return ErrUserOffline
		}

		msg := wire.ChatMessage{ToAll: false, Timestamp: nowUnix(), Text: text}
		w := wirecodec.NewWriter()
		msg.Encode(w)
		if err := c.channel.SendPlain(w.Bytes(), rec.Online.Addr); err != nil {
			return err
		}
		c.appendPerPeer(target, ChatEntry{Timestamp: msg.Timestamp, Name: username, Kind: EntryMessage, Text: text})
		return nil
	}

	msg := wire.ChatMessage{ToAll: true, Timestamp: nowUnix(), Text: text}
	w := wirecodec.NewWriter()
	msg.Encode(w)
	body := w.Bytes()

	for _, addr := range c.onlinePeersExceptSelf(username) {
		if err := c.channel.SendPlain(body, addr); err != nil && c.log != nil {
			c.log.Warnf("broadcast to %s failed: %v", addr, err)
		}
	}
	c.appendGroup(ChatEntry{Timestamp: msg.Timestamp, Name: username, Kind: EntryMessage, ToAll: true, Text: text})
	return nil
}

func (c *Client) onlinePeersExceptSelf(self string) []transport.PeerAddress {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []transport.PeerAddress
	for name, rec := range c.users {
		if name == self || rec.Online == nil {
			continue
		}
		out = append(out, rec.Online.Addr)
	}
	return out
}

// applySnapshot replaces the local roster with the server's view and
// installs every online peer's public key into SecureChannel.
func (c *Client) applySnapshot(users []wire.UserInfo) {
	newUsers := make(map[string]*PeerRecord, len(users))
	newAddr2User := make(map[string]string, len(users))

	for _, u := range users {
		rec := &PeerRecord{Name: u.Name}
		if u.Online != nil {
			addr, err := transport.UDPAddrFromString(u.Online.Addr)
			if err != nil {
				if c.log != nil {
					c.log.Warnf("snapshot entry for %q has unparsable address %q: %v", u.Name, u.Online.Addr, err)
				}
			} else {
				rec.Online = &OnlineRecord{Addr: addr, PubKey: u.Online.PubKey}
				newAddr2User[addr.Key()] = u.Name
				c.channel.InstallKnownKey(addr, u.Online.PubKey)
			}
		}
		newUsers[u.Name] = rec
	}

	c.mu.Lock()
	c.users = newUsers
	c.addr2user = newAddr2User
	c.mu.Unlock()
}
