package mux

import (
	"errors"
	"fmt"

	"github.com/progrium/chanmux/mux/frame"
)

var (
	// ErrClosed is returned for operations on a closed channel or
	// multiplexer.
	ErrClosed = errors.New("chanmux: closed")

	// ErrTimeout is returned when a handshake or open wait does not
	// resolve before its deadline.
	ErrTimeout = errors.New("chanmux: timeout")

	// ErrExhausted is returned by an IDGenerator that has no ids left.
	ErrExhausted = errors.New("chanmux: channel id space exhausted")

	// ErrInitialPayload is returned when an initial payload is given to a
	// multiplexer whose framing cannot carry it on NEW frames.
	ErrInitialPayload = errors.New("chanmux: initial payload requires frame.FramingNewPayload")
)

// InvalidDataError reports a malformed frame or a frame addressed to an
// unknown channel.
type InvalidDataError = frame.InvalidDataError

// DeclinedError is returned when the remote handler refuses to open a
// channel. Reason is empty if none was given.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	if e.Reason == "" {
		return "chanmux: the request to open a new channel was declined"
	}
	return fmt.Sprintf("chanmux: the request to open a new channel was declined: %s", e.Reason)
}

func channelErr(id uint8, err error) error {
	return fmt.Errorf("chanmux: channel %d: %w", id, err)
}
