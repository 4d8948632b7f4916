package mux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux/frame"
)

type requestState uint8

const (
	requestWaiting requestState = iota
	requestAccepted
	requestRefused
)

func (s requestState) String() string {
	switch s {
	case requestAccepted:
		return "ACCEPTED"
	case requestRefused:
		return "REFUSED"
	default:
		return "WAITING"
	}
}

// request is one pending negotiation to open a channel. It resolves at
// most once.
type request struct {
	ch      *Channel
	initial []byte

	mu       sync.Mutex
	state    requestState
	reason   string
	resolved chan struct{}
}

func newRequest(ch *Channel, initial []byte) *request {
	return &request{
		ch:       ch,
		initial:  initial,
		resolved: make(chan struct{}),
	}
}

func (r *request) accept() error {
	return r.resolve(requestAccepted, "")
}

func (r *request) refuse(reason string) error {
	return r.resolve(requestRefused, reason)
}

func (r *request) resolve(s requestState, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != requestWaiting {
		return fmt.Errorf("chanmux: request for channel %d already %s", r.ch.id, r.state)
	}
	r.state = s
	r.reason = reason
	close(r.resolved)
	return nil
}

func (r *request) outcome() (requestState, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.reason
}

// do sends the NEW frame and waits for the request to resolve.
func (r *request) do(ctx context.Context) (*Channel, error) {
	m := r.ch.mux
	id := r.ch.id

	if err := m.send(frame.NewMessage{ChannelID: id, Payload: r.initial}); err != nil {
		m.requests.CompareAndDelete(id, r)
		r.ch.abandon()
		return nil, err
	}

	var waitErr error
	select {
	case <-r.resolved:
	case <-ctx.Done():
		waitErr = ctxErr(ctx)
	case <-m.done:
		waitErr = ErrClosed
	}

	if waitErr != nil {
		if m.requests.CompareAndDelete(id, r) {
			// Nothing can resolve the request anymore.
			r.ch.abandon()
			return nil, waitErr
		}
		// The dispatcher took the request and is resolving it.
		<-r.resolved
		if state, _ := r.outcome(); state == requestAccepted {
			m.log.Debug("channel accepted after the request gave up", zap.Uint8("channel", id))
			r.ch.Close()
		} else {
			r.ch.abandon()
		}
		return nil, waitErr
	}

	state, reason := r.outcome()
	if state == requestRefused {
		r.ch.abandon()
		return nil, &DeclinedError{Reason: reason}
	}
	if err := r.ch.setState(StateOpen); err != nil {
		return nil, err
	}
	return r.ch, nil
}

func ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
