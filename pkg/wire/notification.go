package wire

import (
	"fmt"

	"github.com/coldwire/coldwire/pkg/wirecodec"
)

// NotificationKind tags which server-pushed, unsolicited event a
// Notification carries. Notifications ride the RequestMux unsolicited queue:
// they are not replies to any Command the recipient sent.
type NotificationKind uint8

const (
	NotificationOnline NotificationKind = iota
	NotificationOffline
)

// Notification is a server-to-client push announcing a roster change.
type Notification struct {
	Kind      NotificationKind
	Timestamp int64
	Name      string
	Info      OnlineInfo // valid when Kind is NotificationOnline
}

func (n Notification) Encode(w *wirecodec.Writer) {
	w.WriteUint8(uint8(n.Kind))
	w.WriteInt64(n.Timestamp)
	w.WriteString(n.Name)
	if n.Kind == NotificationOnline {
		n.Info.Encode(w)
	}
}

func DecodeNotification(r *wirecodec.Reader) (Notification, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return Notification{}, err
	}
	ts, err := r.ReadInt64()
	if err != nil {
		return Notification{}, err
	}
	name, err := r.ReadString()
	if err != nil {
		return Notification{}, err
	}

	kind := NotificationKind(tag)
	n := Notification{Kind: kind, Timestamp: ts, Name: name}
	switch kind {
	case NotificationOnline:
		info, err := DecodeOnlineInfo(r)
		if err != nil {
			return Notification{}, err
		}
		n.Info = info
	case NotificationOffline:
		// no extra payload
	default:
		return Notification{}, fmt.Errorf("%w: notification tag %d", ErrUnknownVariant, tag)
	}
	return n, nil
}
