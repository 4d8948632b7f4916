package frame

import (
	"fmt"
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// Encoder encodes messages given an io.Writer. Encode is safe for
// concurrent use; the bytes of one frame are never interleaved with
// another frame.
type Encoder struct {
	w       io.Writer
	framing Framing
	sync.Mutex
}

func NewEncoder(w io.Writer, f Framing) *Encoder {
	return &Encoder{w: w, framing: f}
}

func (enc *Encoder) Encode(msg Message) error {
	b := msg.Bytes(enc.framing)

	enc.Lock()
	defer enc.Unlock()

	if Debug != nil {
		fmt.Fprintln(Debug, "<<ENC", msg)
	}

	if _, err := enc.w.Write(b); err != nil {
		return err
	}
	if f, ok := enc.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
