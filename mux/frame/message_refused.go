package frame

import "fmt"

// RefusedMessage answers a NEW frame the remote handler declined. Reason
// is sent as the payload; an empty payload means no reason was given.
type RefusedMessage struct {
	ChannelID uint8
	Reason    string
}

func (msg RefusedMessage) String() string {
	return fmt.Sprintf("{RefusedMessage ChannelID:%d Reason:%q}", msg.ChannelID, msg.Reason)
}

func (msg RefusedMessage) Channel() uint8 {
	return msg.ChannelID
}

func (msg RefusedMessage) Kind() Kind {
	return KindRefused
}

func (msg RefusedMessage) Bytes(Framing) []byte {
	return payloadFrame(msg.ChannelID, KindRefused, []byte(msg.Reason))
}
