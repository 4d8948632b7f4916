package frame

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
)

// Decoder reads whole raw frames from a byte stream.
type Decoder struct {
	r       io.Reader
	framing Framing

	// MaxPayload rejects frames declaring a larger payload. Zero means
	// no limit.
	MaxPayload uint32

	sync.Mutex
}

func NewDecoder(r io.Reader, f Framing) *Decoder {
	return &Decoder{r: r, framing: f}
}

// Decode reads the next frame and returns its raw bytes, suitable for
// Parse or Multiplexer.Handle.
func (dec *Decoder) Decode() ([]byte, error) {
	dec.Lock()
	defer dec.Unlock()

	var hdr [HeaderLength]byte
	if _, err := io.ReadFull(dec.r, hdr[:]); err != nil {
		return nil, connErr(err)
	}

	kind := Kind(hdr[1])
	if !kind.Valid() {
		return nil, &InvalidDataError{
			Msg:  fmt.Sprintf("unknown message kind %d for channel %d", hdr[1], hdr[0]),
			Data: hdr[:],
		}
	}

	if !dec.framing.HasPayload(kind) {
		raw := hdr[:]
		dec.debug(raw)
		return raw, nil
	}

	var lb [LengthLength]byte
	if _, err := io.ReadFull(dec.r, lb[:]); err != nil {
		return nil, unexpected(connErr(err))
	}
	length, _ := DecodeLength(lb[:], 0)
	if dec.MaxPayload > 0 && length > dec.MaxPayload {
		return nil, &InvalidDataError{
			Msg:  fmt.Sprintf("%s frame for channel %d exceeds maximum payload size: %d > %d", kind, hdr[0], length, dec.MaxPayload),
			Data: append(hdr[:], lb[:]...),
		}
	}

	raw := make([]byte, HeaderLength+LengthLength+int(length))
	copy(raw, hdr[:])
	copy(raw[HeaderLength:], lb[:])
	if _, err := io.ReadFull(dec.r, raw[HeaderLength+LengthLength:]); err != nil {
		return nil, unexpected(connErr(err))
	}
	dec.debug(raw)
	return raw, nil
}

func (dec *Decoder) debug(raw []byte) {
	if Debug == nil {
		return
	}
	if msg, err := Parse(raw, dec.framing); err == nil {
		fmt.Fprintln(Debug, ">>DEC", msg)
	}
}

func connErr(err error) error {
	var syscallErr *os.SyscallError
	if errors.As(err, &syscallErr) && syscallErr.Err == syscall.ECONNRESET {
		return io.EOF
	}
	return err
}

// unexpected turns an EOF in the middle of a frame into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
