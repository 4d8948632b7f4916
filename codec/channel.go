package codec

import (
	"fmt"

	"github.com/progrium/chanmux/mux"
)

// Sender encodes values onto a channel.
type Sender struct {
	ch    *mux.Channel
	codec Codec
}

func NewSender(ch *mux.Channel, c Codec) *Sender {
	return &Sender{ch: ch, codec: c}
}

// Send encodes v and sends it as one DATA frame.
func (s *Sender) Send(v interface{}) error {
	b, err := Marshal(s.codec, v)
	if err != nil {
		return fmt.Errorf("codec: encoding %T: %w", v, err)
	}
	return s.ch.Send(b)
}

// Listen returns a channel listener decoding every payload into a T. fn
// is called with the decoded value, or with the zero value and the error
// if the payload could not be decoded.
func Listen[T any](c Codec, fn func(v T, err error)) mux.Listener {
	return mux.ListenerFunc(func(data []byte) {
		var v T
		if err := Unmarshal(c, data, &v); err != nil {
			var zero T
			fn(zero, fmt.Errorf("codec: decoding %T: %w", v, err))
			return
		}
		fn(v, nil)
	})
}
