package wire

import "github.com/coldwire/coldwire/pkg/wirecodec"

// ChatMessage is the peer-to-peer payload carried inside a SecureChannel Msg
// envelope once two peers have exchanged keys directly (not via the
// server). ToAll marks a broadcast-style message sent to every known peer
// rather than a single recipient; the distinction only matters to the
// sender's UI, the wire shape is identical either way.
type ChatMessage struct {
	ToAll     bool
	Timestamp int64
	Text      string
}

func (m ChatMessage) Encode(w *wirecodec.Writer) {
	w.WriteBool(m.ToAll)
	w.WriteInt64(m.Timestamp)
	w.WriteString(m.Text)
}

func DecodeChatMessage(r *wirecodec.Reader) (ChatMessage, error) {
	toAll, err := r.ReadBool()
	if err != nil {
		return ChatMessage{}, err
	}
	ts, err := r.ReadInt64()
	if err != nil {
		return ChatMessage{}, err
	}
	text, err := r.ReadString()
	if err != nil {
		return ChatMessage{}, err
	}
	return ChatMessage{ToAll: toAll, Timestamp: ts, Text: text}, nil
}
