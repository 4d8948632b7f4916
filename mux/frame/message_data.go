package frame

import "fmt"

type DataMessage struct {
	ChannelID uint8
	Data      []byte
}

func (msg DataMessage) String() string {
	return fmt.Sprintf("{DataMessage ChannelID:%d Length:%d Data: ... }",
		msg.ChannelID, len(msg.Data))
}

func (msg DataMessage) Channel() uint8 {
	return msg.ChannelID
}

func (msg DataMessage) Kind() Kind {
	return KindData
}

func (msg DataMessage) Bytes(Framing) []byte {
	return payloadFrame(msg.ChannelID, KindData, msg.Data)
}
