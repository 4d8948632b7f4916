package frame

import "fmt"

type AcceptMessage struct {
	ChannelID uint8
}

func (msg AcceptMessage) String() string {
	return fmt.Sprintf("{AcceptMessage ChannelID:%d}", msg.ChannelID)
}

func (msg AcceptMessage) Channel() uint8 {
	return msg.ChannelID
}

func (msg AcceptMessage) Kind() Kind {
	return KindAccept
}

func (msg AcceptMessage) Bytes(Framing) []byte {
	return header(msg.ChannelID, KindAccept)
}
