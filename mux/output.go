package mux

import (
	"sync"

	"github.com/progrium/chanmux/mux/frame"
)

// Output is the buffered writer of a Channel. It turns writes into DATA
// frames.
//
// While the channel is opening no DATA frame may be sent, so each Write
// is queued as a separate message and sent in order once the channel
// opens. After that, writes accumulate in a fixed size buffer that is sent
// by Flush, or together with a write that does not fit.
//
// An Output is meant to be used by one writer at a time.
type Output struct {
	ch *Channel

	// mu serializes writes of this channel and protects the fields
	// below.
	mu  sync.Mutex
	buf []byte
	n   int

	// queue holds writes made while opening. queueing is cleared once
	// the queue has been sent.
	queue    [][]byte
	queueing bool
}

func newOutput(ch *Channel, size int) *Output {
	return &Output{
		ch:       ch,
		buf:      make([]byte, size),
		queueing: true,
	}
}

// Size returns the capacity of the buffer.
func (o *Output) Size() int {
	return len(o.buf)
}

// Buffered returns the number of bytes waiting for the next flush.
func (o *Output) Buffered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.n
}

// Write buffers p. If p does not fit in the remaining buffer space, the
// buffered bytes and p are sent together as one DATA frame.
func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	queued, err := o.prepare(p)
	if err != nil || queued {
		if err != nil {
			return 0, err
		}
		return len(p), nil
	}

	if len(p) > len(o.buf)-o.n {
		data := make([]byte, o.n+len(p))
		copy(data, o.buf[:o.n])
		copy(data[o.n:], p)
		if err := o.send(data); err != nil {
			return 0, err
		}
		o.n = 0
		return len(p), nil
	}

	o.n += copy(o.buf[o.n:], p)
	return len(p), nil
}

// WriteByte buffers c and flushes once the buffer is full.
func (o *Output) WriteByte(c byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	queued, err := o.prepare([]byte{c})
	if err != nil || queued {
		return err
	}

	o.buf[o.n] = c
	o.n++
	if o.n == len(o.buf) {
		return o.flushLocked()
	}
	return nil
}

// Send sends p as exactly one DATA frame, after the bytes already
// buffered. While the channel is opening p is queued like a Write.
func (o *Output) Send(p []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	queued, err := o.prepare(p)
	if err != nil || queued {
		return err
	}
	if o.n > 0 {
		if err := o.flushLocked(); err != nil {
			return err
		}
	}
	return o.send(p)
}

// Flush sends the buffered bytes as one DATA frame, even if there are
// none. Messages still queued from before the channel opened are sent
// first. While the channel is opening Flush does nothing, the queue is
// sent when it opens.
func (o *Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.ch.State() {
	case StateClosed:
		return channelErr(o.ch.id, ErrClosed)
	case StateOpening:
		return nil
	}
	if err := o.drainLocked(); err != nil {
		return err
	}
	return o.flushLocked()
}

// prepare checks the channel state before a write. It queues p and
// reports true if the channel is still opening. Otherwise it makes sure
// the queue has been sent.
func (o *Output) prepare(p []byte) (bool, error) {
	switch o.ch.State() {
	case StateClosed:
		return false, channelErr(o.ch.id, ErrClosed)
	case StateOpening:
		if o.queueing {
			o.queue = append(o.queue, append([]byte(nil), p...))
			return true, nil
		}
	}
	return false, o.drainLocked()
}

// sendQueued sends the messages written while the channel was opening and
// retires the queue. Called once the channel opens.
func (o *Output) sendQueued() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ch.IsClosed() {
		return channelErr(o.ch.id, ErrClosed)
	}
	return o.drainLocked()
}

func (o *Output) drainLocked() error {
	if !o.queueing {
		return nil
	}
	for len(o.queue) > 0 {
		if err := o.send(o.queue[0]); err != nil {
			return err
		}
		o.queue[0] = nil
		o.queue = o.queue[1:]
	}
	o.queue = nil
	o.queueing = false
	return nil
}

func (o *Output) flushLocked() error {
	if err := o.send(o.buf[:o.n]); err != nil {
		return err
	}
	o.n = 0
	return nil
}

func (o *Output) send(data []byte) error {
	return o.ch.mux.send(frame.DataMessage{
		ChannelID: o.ch.id,
		Data:      data,
	})
}
