// Package frame implements encoding and decoding of chanmux frames.
//
// A frame is a one byte channel id, a one byte message kind and, for
// payload-bearing kinds, a four byte little-endian length followed by
// exactly that many payload bytes.
package frame

import "io"

var (
	// Debug can be set to get message frames as they're encoded and decoded
	Debug io.Writer
)

const (
	// HeaderLength is the size of the channel id and kind fields.
	HeaderLength = 2

	// LengthLength is the size of the payload length field.
	LengthLength = 4
)

// Message is a single decoded frame.
type Message interface {
	Channel() uint8
	Kind() Kind
	Bytes(f Framing) []byte
	String() string
}

func header(ch uint8, k Kind) []byte {
	return []byte{ch, byte(k)}
}

// payloadFrame lays out a header, a length field and the payload.
func payloadFrame(ch uint8, k Kind, payload []byte) []byte {
	packet := make([]byte, HeaderLength+LengthLength, HeaderLength+LengthLength+len(payload))
	packet[0] = ch
	packet[1] = byte(k)
	PutLength(packet[HeaderLength:], uint32(len(payload)))
	return append(packet, payload...)
}
