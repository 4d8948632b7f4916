package frame

import "fmt"

// Kind is the message kind carried in the second header byte.
type Kind uint8

const (
	KindData Kind = iota
	KindNew
	KindAccept
	KindClose
	KindRefused
)

var kindNames = [...]string{
	KindData:    "DATA",
	KindNew:     "NEW",
	KindAccept:  "ACCEPT",
	KindClose:   "CLOSE",
	KindRefused: "REFUSED",
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the known message kinds.
func (k Kind) Valid() bool {
	return k <= KindRefused
}

// Framing selects how NEW frames are laid out on the wire. Both peers of a
// multiplexer must use the same framing.
type Framing uint8

const (
	// FramingCompact sends NEW as a bare header. Only DATA and REFUSED
	// carry a length field and payload.
	FramingCompact Framing = iota

	// FramingNewPayload additionally treats NEW as payload-bearing so an
	// initial payload can travel with the open request.
	FramingNewPayload
)

// HasPayload reports whether frames of kind k carry a length field and
// payload under framing f.
func (f Framing) HasPayload(k Kind) bool {
	switch k {
	case KindData, KindRefused:
		return true
	case KindNew:
		return f == FramingNewPayload
	default:
		return false
	}
}

func (f Framing) String() string {
	switch f {
	case FramingCompact:
		return "compact"
	case FramingNewPayload:
		return "new-payload"
	default:
		return fmt.Sprintf("Framing(%d)", uint8(f))
	}
}
