package frame

import "fmt"

type CloseMessage struct {
	ChannelID uint8
}

func (msg CloseMessage) String() string {
	return fmt.Sprintf("{CloseMessage ChannelID:%d}", msg.ChannelID)
}

func (msg CloseMessage) Channel() uint8 {
	return msg.ChannelID
}

func (msg CloseMessage) Kind() Kind {
	return KindClose
}

func (msg CloseMessage) Bytes(Framing) []byte {
	return header(msg.ChannelID, KindClose)
}
