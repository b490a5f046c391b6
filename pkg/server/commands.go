package server

import (
	"time"

	"github.com/coldwire/coldwire/pkg/crypto"
	"github.com/coldwire/coldwire/pkg/requestmux"
	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
)

func (s *Server) handleRegister(u requestmux.Unsolicited, cmd wire.Command) {
	s.usersMu.Lock()
	if _, exists := s.users[cmd.Username]; exists {
		s.usersMu.Unlock()
		s.reply(u, wire.ErrResponse(wire.ErrCodeUserExisted))
		return
	}

	hash, err := crypto.HashPassword(cmd.Password)
	if err != nil {
		s.usersMu.Unlock()
		if s.log != nil {
			s.log.Errorf("hashing password for %q: %v", cmd.Username, err)
		}
		s.reply(u, wire.ErrResponse(wire.ErrCodeUnsupported))
		return
	}

	s.users[cmd.Username] = &UserRecord{Name: cmd.Username, PasswordHash: hash}
	s.usersMu.Unlock()

	s.reply(u, wire.OkResponse(wire.ResponseData{Kind: wire.ResponseDataSuccess}))
}

func (s *Server) handleLogin(u requestmux.Unsolicited, cmd wire.Command) {
	pub, hasKey := s.channel.PeerPublicKey(u.Peer)

	s.usersMu.Lock()
	rec, ok := s.users[cmd.Username]
	if !ok || !rec.PasswordHash.Verify(cmd.Password) {
		s.usersMu.Unlock()
		s.reply(u, wire.ErrResponse(wire.ErrCodeInvalidUserOrPass))
		return
	}
	if !hasKey {
		s.usersMu.Unlock()
		s.reply(u, wire.ErrResponse(wire.ErrCodeConnectionNotSecure))
		return
	}

	staleAddr := transport.PeerAddress{}
	if rec.Online != nil && rec.Online.Addr.Key() != u.Peer.Key() {
		staleAddr = rec.Online.Addr
	}
	rec.Online = &OnlineState{Addr: u.Peer, PubKey: pub}
	s.usersMu.Unlock()

	s.addrMu.Lock()
	if staleAddr.IsValid() {
		delete(s.addr2user, staleAddr.Key())
	}
	s.addr2user[u.Peer.Key()] = cmd.Username
	s.addrMu.Unlock()

	s.resetTimer(cmd.Username)

	username := cmd.Username
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.announceOnline(username, wire.OnlineInfo{Addr: u.Peer.String(), PubKey: pub})
	}()

	s.reply(u, wire.OkResponse(wire.ResponseData{
		Kind:  wire.ResponseDataChatroomStatus,
		Users: s.snapshotUsers(),
	}))
}

func (s *Server) handleChangePassword(u requestmux.Unsolicited, cmd wire.Command) {
	username, loggedIn := s.loggedInUser(u.Peer)
	if !loggedIn {
		s.reply(u, wire.ErrResponse(wire.ErrCodeLoginRequired))
		return
	}

	s.usersMu.Lock()
	rec := s.users[username]
	if rec == nil || !rec.PasswordHash.Verify(cmd.OldPassword) {
		s.usersMu.Unlock()
		s.reply(u, wire.ErrResponse(wire.ErrCodeInvalidUserOrPass))
		return
	}
	hash, err := crypto.HashPassword(cmd.NewPassword)
	if err != nil {
		s.usersMu.Unlock()
		if s.log != nil {
			s.log.Errorf("rehashing password for %q: %v", username, err)
		}
		s.reply(u, wire.ErrResponse(wire.ErrCodeUnsupported))
		return
	}
	rec.PasswordHash = hash
	s.usersMu.Unlock()

	s.reply(u, wire.OkResponse(wire.ResponseData{Kind: wire.ResponseDataSuccess}))
}

func (s *Server) handleGetChatroomStatus(u requestmux.Unsolicited) {
	if _, loggedIn := s.loggedInUser(u.Peer); !loggedIn {
		s.reply(u, wire.ErrResponse(wire.ErrCodeLoginRequired))
		return
	}
	s.reply(u, wire.OkResponse(wire.ResponseData{
		Kind:  wire.ResponseDataChatroomStatus,
		Users: s.snapshotUsers(),
	}))
}

func (s *Server) handleHeartbeat(u requestmux.Unsolicited) {
	username, loggedIn := s.loggedInUser(u.Peer)
	if !loggedIn {
		if s.log != nil {
			s.log.Debugf("heartbeat from unregistered peer %s", u.Peer)
		}
		return
	}
	s.resetTimer(username)
}

func (s *Server) handleLogout(u requestmux.Unsolicited) {
	s.addrMu.Lock()
	username, ok := s.addr2user[u.Peer.Key()]
	if ok {
		delete(s.addr2user, u.Peer.Key())
	}
	s.addrMu.Unlock()

	if !ok {
		s.reply(u, wire.ErrResponse(wire.ErrCodeLoginRequired))
		return
	}

	s.timerMu.Lock()
	if t, ok := s.timers[username]; ok {
		t.Stop()
		delete(s.timers, username)
	}
	s.timerMu.Unlock()

	s.usersMu.Lock()
	if rec, ok := s.users[username]; ok {
		rec.Online = nil
	}
	s.usersMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.announceOffline(username)
	}()

	s.reply(u, wire.OkResponse(wire.ResponseData{Kind: wire.ResponseDataSuccess}))
}

// loggedInUser resolves the username bound to peer and reports whether it
// currently holds an activity timer (i.e. is considered logged in).
func (s *Server) loggedInUser(peer transport.PeerAddress) (string, bool) {
	s.addrMu.RLock()
	username, ok := s.addr2user[peer.Key()]
	s.addrMu.RUnlock()
	if !ok {
		return "", false
	}

	s.timerMu.RLock()
	_, hasTimer := s.timers[username]
	s.timerMu.RUnlock()
	return username, hasTimer
}

// resetTimer (re)installs username's activity timer, expiring the session
// after HeartbeatInterval without another reset.
func (s *Server) resetTimer(username string) {
	s.timerMu.Lock()
	if t, ok := s.timers[username]; ok {
		t.Stop()
	}
	s.timers[username] = time.AfterFunc(s.opts.HeartbeatInterval, func() { s.expireUser(username) })
	s.timerMu.Unlock()
}

func (s *Server) expireUser(username string) {
	s.timerMu.Lock()
	delete(s.timers, username)
	s.timerMu.Unlock()

	s.usersMu.Lock()
	rec, ok := s.users[username]
	var addr transport.PeerAddress
	if ok && rec.Online != nil {
		addr = rec.Online.Addr
		rec.Online = nil
	}
	s.usersMu.Unlock()

	if !ok || !addr.IsValid() {
		return
	}

	s.addrMu.Lock()
	delete(s.addr2user, addr.Key())
	s.addrMu.Unlock()

	if s.log != nil {
		s.log.Infof("%s's session expired", username)
	}
	s.announceOffline(username)
}

func (s *Server) snapshotUsers() []wire.UserInfo {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	out := make([]wire.UserInfo, 0, len(s.users))
	for _, rec := range s.users {
		info := wire.UserInfo{Name: rec.Name}
		if rec.Online != nil {
			online := wire.OnlineInfo{Addr: rec.Online.Addr.String(), PubKey: rec.Online.PubKey}
			info.Online = &online
		}
		out = append(out, info)
	}
	return out
}

// onlineRecipientsExcept returns every online user's address except the one
// bound to excludeUsername.
func (s *Server) onlineRecipientsExcept(excludeUsername string) []transport.PeerAddress {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	var out []transport.PeerAddress
	for name, rec := range s.users {
		if name == excludeUsername || rec.Online == nil {
			continue
		}
		out = append(out, rec.Online.Addr)
	}
	return out
}
