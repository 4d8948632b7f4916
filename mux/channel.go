package mux

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux/frame"
)

// State is the lifecycle state of a Channel. States only move forward.
type State uint8

const (
	StateOpening State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "OPENING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// A Listener receives the payloads of a channel.
type Listener interface {
	Received(data []byte)
}

type listenerFunc struct {
	fn func(data []byte)
}

func (l *listenerFunc) Received(data []byte) {
	l.fn(data)
}

// ListenerFunc wraps fn as a Listener. The returned value is comparable
// and can be passed to RemoveListener.
func ListenerFunc(fn func(data []byte)) Listener {
	return &listenerFunc{fn: fn}
}

// Channel is one logical stream multiplexed over the transport of a
// Multiplexer. Channels are created by Multiplexer.EstablishNewChannel or
// handed to the Handler when the remote side requests one.
type Channel struct {
	// R/O after creation
	id  uint8
	mux *Multiplexer

	// mu protects state, out and closing.
	mu      sync.Mutex
	state   State
	out     *Output
	closing bool

	// opened is closed on entering StateOpen, done on entering
	// StateClosed.
	opened chan struct{}
	done   chan struct{}

	listenersMu sync.Mutex
	listeners   []Listener
}

func newChannel(id uint8, m *Multiplexer) *Channel {
	ch := &Channel{
		id:     id,
		mux:    m,
		opened: make(chan struct{}),
		done:   make(chan struct{}),
	}
	ch.out = newOutput(ch, m.bufferSize)
	return ch
}

// ID returns the identifier of this channel within its multiplexer.
func (ch *Channel) ID() uint8 {
	return ch.id
}

// State returns the current state of the channel.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// IsClosed reports whether the channel is closed.
func (ch *Channel) IsClosed() bool {
	return ch.State() == StateClosed
}

// Done returns a channel that is closed once the Channel is closed.
func (ch *Channel) Done() <-chan struct{} {
	return ch.done
}

func (ch *Channel) String() string {
	return fmt.Sprintf("channel { id=%d, state=%s }", ch.id, ch.State())
}

// setState moves the channel to s. Setting the current state is a no-op;
// any transition out of StateClosed fails with ErrClosed. Entering
// StateOpen sends the writes queued while opening before waking
// WaitToOpen callers.
func (ch *Channel) setState(s State) error {
	ch.mu.Lock()
	if s == ch.state {
		ch.mu.Unlock()
		return nil
	}
	if ch.state == StateClosed {
		ch.mu.Unlock()
		return channelErr(ch.id, ErrClosed)
	}
	if s < ch.state {
		prev := ch.state
		ch.mu.Unlock()
		return fmt.Errorf("chanmux: channel %d: invalid transition %s -> %s", ch.id, prev, s)
	}
	ch.state = s
	out := ch.out
	if s == StateClosed {
		ch.closing = true
		ch.out = nil
		close(ch.done)
	}
	ch.mu.Unlock()

	if s == StateOpen {
		if err := out.sendQueued(); err != nil {
			ch.mux.log.Warn("sending queued writes", zap.Uint8("channel", ch.id), zap.Error(err))
		}
		close(ch.opened)
	}
	return nil
}

// markClosed moves the channel to StateClosed and reports whether this
// call made the transition.
func (ch *Channel) markClosed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateClosed {
		return false
	}
	ch.state = StateClosed
	ch.closing = true
	ch.out = nil
	close(ch.done)
	return true
}

// Receive hands data to every listener in the order they were added. It
// is called by the multiplexer for DATA frames and can be called directly
// to fake the arrival of a payload.
func (ch *Channel) Receive(data []byte) error {
	if ch.IsClosed() {
		return channelErr(ch.id, ErrClosed)
	}

	ch.listenersMu.Lock()
	listeners := make([]Listener, len(ch.listeners))
	copy(listeners, ch.listeners)
	ch.listenersMu.Unlock()

	for _, l := range listeners {
		l.Received(data)
	}
	return nil
}

// AddListener adds l to the channel. Adding a listener already present
// has no effect.
func (ch *Channel) AddListener(l Listener) {
	ch.listenersMu.Lock()
	defer ch.listenersMu.Unlock()
	for _, existing := range ch.listeners {
		if existing == l {
			return
		}
	}
	ch.listeners = append(ch.listeners, l)
}

// RemoveListener removes l from the channel.
func (ch *Channel) RemoveListener(l Listener) {
	ch.listenersMu.Lock()
	defer ch.listenersMu.Unlock()
	for i, existing := range ch.listeners {
		if existing == l {
			ch.listeners = append(ch.listeners[:i:i], ch.listeners[i+1:]...)
			return
		}
	}
}

// Listeners returns the registered listeners in order.
func (ch *Channel) Listeners() []Listener {
	ch.listenersMu.Lock()
	defer ch.listenersMu.Unlock()
	return append([]Listener(nil), ch.listeners...)
}

// WaitToOpen blocks until the channel is open or timeout elapses. A zero
// timeout waits indefinitely.
func (ch *Channel) WaitToOpen(timeout time.Duration) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ch.WaitOpen(ctx)
}

// WaitOpen blocks until the channel is open. It returns ErrClosed if the
// channel closes first.
func (ch *Channel) WaitOpen(ctx context.Context) error {
	// opened is closed only after the queued writes went out.
	select {
	case <-ch.done:
		return channelErr(ch.id, ErrClosed)
	default:
	}
	select {
	case <-ch.opened:
		return nil
	default:
	}
	select {
	case <-ch.opened:
		return nil
	case <-ch.done:
		return channelErr(ch.id, ErrClosed)
	case <-ctx.Done():
		return ctxErr(ctx)
	}
}

// Output returns the buffered writer of the channel.
func (ch *Channel) Output() (*Output, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateClosed {
		return nil, channelErr(ch.id, ErrClosed)
	}
	return ch.out, nil
}

// Write writes p to the channel's Output.
func (ch *Channel) Write(p []byte) (int, error) {
	out, err := ch.Output()
	if err != nil {
		return 0, err
	}
	return out.Write(p)
}

// Flush flushes the channel's Output.
func (ch *Channel) Flush() error {
	out, err := ch.Output()
	if err != nil {
		return err
	}
	return out.Flush()
}

// Send sends p as exactly one DATA frame. See Output.Send.
func (ch *Channel) Send(p []byte) error {
	out, err := ch.Output()
	if err != nil {
		return err
	}
	return out.Send(p)
}

// Close closes the channel and tells the remote side. Closing a closed
// channel is a no-op. The channel ends up closed even if the CLOSE frame
// could not be sent; that error is returned.
//
// Close waits for writes in progress, including the queue sent when the
// channel opens, so no DATA frame of the channel follows its CLOSE.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	if ch.closing || ch.state == StateClosed {
		ch.mu.Unlock()
		return nil
	}
	ch.closing = true
	out := ch.out
	ch.mu.Unlock()

	out.mu.Lock()
	err := ch.mux.send(frame.CloseMessage{ChannelID: ch.id})
	first := ch.markClosed()
	out.mu.Unlock()

	if first {
		ch.mux.forget(ch)
	}
	return err
}

// abandon closes a channel that never became live without sending
// anything or notifying the handler.
func (ch *Channel) abandon() {
	ch.markClosed()
}
