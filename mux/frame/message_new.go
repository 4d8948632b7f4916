package frame

import "fmt"

// NewMessage requests a new channel. Payload is only put on the wire
// under FramingNewPayload.
type NewMessage struct {
	ChannelID uint8
	Payload   []byte
}

func (msg NewMessage) String() string {
	return fmt.Sprintf("{NewMessage ChannelID:%d Length:%d}", msg.ChannelID, len(msg.Payload))
}

func (msg NewMessage) Channel() uint8 {
	return msg.ChannelID
}

func (msg NewMessage) Kind() Kind {
	return KindNew
}

func (msg NewMessage) Bytes(f Framing) []byte {
	if f.HasPayload(KindNew) {
		return payloadFrame(msg.ChannelID, KindNew, msg.Payload)
	}
	return header(msg.ChannelID, KindNew)
}
