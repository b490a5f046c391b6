package server

import (
	"time"

	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
	"github.com/coldwire/coldwire/pkg/wirecodec"
)

func (s *Server) announceOnline(username string, info wire.OnlineInfo) {
	notif := wire.Notification{
		Kind:      wire.NotificationOnline,
		Timestamp: time.Now().UTC().Unix(),
		Name:      username,
		Info:      info,
	}
	s.broadcast(notif, s.onlineRecipientsExcept(username))
}

func (s *Server) announceOffline(username string) {
	notif := wire.Notification{
		Kind:      wire.NotificationOffline,
		Timestamp: time.Now().UTC().Unix(),
		Name:      username,
	}
	s.broadcast(notif, s.onlineRecipientsExcept(username))
}

func (s *Server) broadcast(notif wire.Notification, recipients []transport.PeerAddress) {
	w := wirecodec.NewWriter()
	notif.Encode(w)
	body := w.Bytes()

	for _, addr := range recipients {
		if err := s.mux.Notify(body, addr); err != nil && s.log != nil {
			s.log.Warnf("broadcast to %s failed: %v", addr, err)
		}
	}
}
