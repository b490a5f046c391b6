package wire

import "github.com/coldwire/coldwire/pkg/wirecodec"

// OnlineInfo carries what a peer needs to open a direct SecureChannel to a
// user the directory server currently has online: its last-known UDP
// address and its current Curve25519 public key.
type OnlineInfo struct {
	Addr   string
	PubKey [32]byte
}

func (o OnlineInfo) Encode(w *wirecodec.Writer) {
	w.WriteString(o.Addr)
	w.WriteFixed(o.PubKey[:])
}

func DecodeOnlineInfo(r *wirecodec.Reader) (OnlineInfo, error) {
	addr, err := r.ReadString()
	if err != nil {
		return OnlineInfo{}, err
	}
	key, err := r.ReadFixed(32)
	if err != nil {
		return OnlineInfo{}, err
	}
	var o OnlineInfo
	o.Addr = addr
	copy(o.PubKey[:], key)
	return o, nil
}

// UserInfo describes one entry of the chatroom roster. Online is nil for a
// registered user who is currently offline.
type UserInfo struct {
	Name   string
	Online *OnlineInfo
}

func (u UserInfo) Encode(w *wirecodec.Writer) {
	w.WriteString(u.Name)
	w.WriteBool(u.Online != nil)
	if u.Online != nil {
		u.Online.Encode(w)
	}
}

func DecodeUserInfo(r *wirecodec.Reader) (UserInfo, error) {
	name, err := r.ReadString()
	if err != nil {
		return UserInfo{}, err
	}
	hasOnline, err := r.ReadBool()
	if err != nil {
		return UserInfo{}, err
	}
	u := UserInfo{Name: name}
	if hasOnline {
		online, err := DecodeOnlineInfo(r)
		if err != nil {
			return UserInfo{}, err
		}
		u.Online = &online
	}
	return u, nil
}
