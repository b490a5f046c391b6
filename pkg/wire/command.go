package wire

import (
	"fmt"

	"github.com/coldwire/coldwire/pkg/wirecodec"
)

// CommandKind tags which client-to-server command a Command value carries.
type CommandKind uint8

const (
	CommandRegister CommandKind = iota
	CommandLogin
	CommandChangePassword
	CommandGetChatroomStatus
	CommandHeartbeat
	CommandLogout
)

// Command is a client-to-server request, sent as the body of a RequestMux
// request. Only the fields relevant to Kind are populated.
type Command struct {
	Kind CommandKind

	// CommandRegister, CommandLogin
	Username string
	Password []byte

	// CommandChangePassword
	OldPassword []byte
	NewPassword []byte
}

func (c Command) Encode(w *wirecodec.Writer) {
	w.WriteUint8(uint8(c.Kind))
	switch c.Kind {
	case CommandRegister, CommandLogin:
		w.WriteString(c.Username)
		w.WriteBytes(c.Password)
	case CommandChangePassword:
		w.WriteBytes(c.OldPassword)
		w.WriteBytes(c.NewPassword)
	case CommandGetChatroomStatus, CommandHeartbeat, CommandLogout:
		// no payload
	}
}

func DecodeCommand(r *wirecodec.Reader) (Command, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return Command{}, err
	}

	kind := CommandKind(tag)
	switch kind {
	case CommandRegister, CommandLogin:
		username, err := r.ReadString()
		if err != nil {
			return Command{}, err
		}
		password, err := r.ReadBytes()
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Username: username, Password: password}, nil
	case CommandChangePassword:
		oldPw, err := r.ReadBytes()
		if err != nil {
			return Command{}, err
		}
		newPw, err := r.ReadBytes()
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, OldPassword: oldPw, NewPassword: newPw}, nil
	case CommandGetChatroomStatus, CommandHeartbeat, CommandLogout:
		return Command{Kind: kind}, nil
	default:
		return Command{}, fmt.Errorf("%w: command tag %d", ErrUnknownVariant, tag)
	}
}
