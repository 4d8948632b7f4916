// Package mux multiplexes independent, ordered, bidirectional channels
// over a single full-duplex byte stream.
//
// Channels are opened with a NEW / ACCEPT or REFUSED handshake, carry
// opaque payloads in DATA frames and are closed by either side with a
// CLOSE frame. Frames arriving from the transport are passed to
// Multiplexer.Handle, usually by Multiplexer.Serve. All frames leave
// through one shared sink whose writes are serialized.
package mux

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux/frame"
)

// Multiplexer owns the transport of a set of channels. It routes incoming
// frames to channels and pending requests, and serializes outgoing
// frames. A transport error while sending closes the multiplexer.
type Multiplexer struct {
	id         xid.ID
	ids        IDGenerator
	in         io.Reader
	enc        *frame.Encoder
	handler    Handler
	framing    frame.Framing
	bufferSize int
	maxPayload uint32
	closer     io.Closer
	log        *zap.Logger

	// channels maps live channel ids to *Channel, requests maps ids of
	// pending requests to *request.
	channels sync.Map
	requests sync.Map

	closed atomic.Bool
	done   chan struct{}
	errMu  sync.Mutex
	err    error
}

// New returns an open multiplexer for cfg.
func New(cfg Config) (*Multiplexer, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	m := &Multiplexer{
		id:         xid.New(),
		ids:        cfg.IDs,
		in:         cfg.Input,
		enc:        frame.NewEncoder(cfg.Output, cfg.Framing),
		handler:    cfg.Handler,
		framing:    cfg.Framing,
		bufferSize: cfg.BufferSize,
		maxPayload: cfg.MaxPayload,
		closer:     cfg.Closer,
		done:       make(chan struct{}),
	}
	m.log = cfg.Logger.With(zap.String("mux", m.id.String()))
	return m, nil
}

// ID returns the unique identifier of the multiplexer used in its logs.
func (m *Multiplexer) ID() string {
	return m.id.String()
}

// EstablishNewChannel asks the remote side for a new channel and blocks
// until it is accepted, refused or timeout elapses. A zero timeout waits
// indefinitely. A refusal returns a *DeclinedError.
func (m *Multiplexer) EstablishNewChannel(timeout time.Duration, initial []byte) (*Channel, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return m.Open(ctx, initial)
}

// Open is EstablishNewChannel bounded by ctx instead of a timeout. The
// given listeners are added before the request is sent so they see every
// payload of the channel.
func (m *Multiplexer) Open(ctx context.Context, initial []byte, listeners ...Listener) (*Channel, error) {
	r, err := m.newRequest(initial)
	if err != nil {
		return nil, err
	}
	for _, l := range listeners {
		r.ch.AddListener(l)
	}
	return r.do(ctx)
}

// AsyncEstablishNewChannel runs the negotiation of EstablishNewChannel in
// its own goroutine without a timeout. Errors allocating the request are
// returned immediately.
func (m *Multiplexer) AsyncEstablishNewChannel(initial []byte) (*Pending, error) {
	r, err := m.newRequest(initial)
	if err != nil {
		return nil, err
	}
	p := newPending()
	go func() {
		p.resolve(r.do(context.Background()))
	}()
	return p, nil
}

func (m *Multiplexer) newRequest(initial []byte) (*request, error) {
	if m.IsClosed() {
		return nil, ErrClosed
	}
	if len(initial) > 0 && !m.framing.HasPayload(frame.KindNew) {
		return nil, ErrInitialPayload
	}

	id, err := m.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("chanmux: allocating channel id: %w", err)
	}
	if _, ok := m.channels.Load(id); ok {
		return nil, fmt.Errorf("chanmux: channel id %d is already in use", id)
	}

	r := newRequest(newChannel(id, m), initial)
	if _, loaded := m.requests.LoadOrStore(id, r); loaded {
		return nil, fmt.Errorf("chanmux: channel id %d already has a pending request", id)
	}
	return r, nil
}

// Handle decodes and dispatches one frame read from the transport.
//
// Malformed frames, DATA for an unknown channel and REFUSED without a
// pending request return an *InvalidDataError. DATA for a closed channel
// returns ErrClosed. Neither closes the multiplexer.
func (m *Multiplexer) Handle(raw []byte) error {
	if m.IsClosed() {
		return ErrClosed
	}

	msg, err := frame.Parse(raw, m.framing)
	if err != nil {
		return err
	}

	switch msg := msg.(type) {
	case frame.NewMessage:
		m.handleNew(msg.ChannelID, msg.Payload)
		return nil

	case frame.AcceptMessage:
		m.handleAccept(msg.ChannelID)
		return nil

	case frame.CloseMessage:
		ch := m.Channel(msg.ChannelID)
		if ch == nil {
			m.log.Debug("close for unknown channel", zap.Uint8("channel", msg.ChannelID))
			return nil
		}
		m.channelClosed(ch)
		return nil

	case frame.DataMessage:
		ch := m.Channel(msg.ChannelID)
		if ch == nil {
			return &InvalidDataError{
				Msg:  fmt.Sprintf("no channel established with id %d", msg.ChannelID),
				Data: raw,
			}
		}
		return ch.Receive(msg.Data)

	case frame.RefusedMessage:
		v, ok := m.requests.LoadAndDelete(msg.ChannelID)
		if !ok {
			return &InvalidDataError{
				Msg:  fmt.Sprintf("no channel request registered with id %d", msg.ChannelID),
				Data: raw,
			}
		}
		if err := v.(*request).refuse(msg.Reason); err != nil {
			m.log.Warn("refusing request", zap.Error(err))
		}
		return nil

	default:
		return fmt.Errorf("chanmux: invalid message %v", msg)
	}
}

// handleNew asks the handler about a channel requested by the remote side
// and answers with ACCEPT or REFUSED. A failure to send the answer is
// logged and does not undo the decision.
func (m *Multiplexer) handleNew(id uint8, initial []byte) {
	log := m.log.With(zap.Uint8("channel", id))

	if m.inUse(id) {
		log.Warn("channel requested with an id already in use")
		if err := m.send(frame.RefusedMessage{ChannelID: id, Reason: fmt.Sprintf("channel id %d is already in use", id)}); err != nil {
			log.Warn("sending refusal", zap.Error(err))
		}
		return
	}

	ch := newChannel(id, m)
	decision := m.handler.NewChannelRequested(ch, initial)
	if decision.Accepted() && ch.IsClosed() {
		decision = Decline("channel was closed while being accepted")
	}

	if !decision.Accepted() {
		ch.abandon()
		log.Debug("channel declined", zap.String("reason", decision.Reason()))
		if err := m.send(frame.RefusedMessage{ChannelID: id, Reason: decision.Reason()}); err != nil {
			log.Warn("sending refusal", zap.Error(err))
		}
		return
	}

	m.channels.Store(id, ch)
	if err := m.send(frame.AcceptMessage{ChannelID: id}); err != nil {
		log.Warn("sending accept", zap.Error(err))
	}
	if err := ch.setState(StateOpen); err != nil {
		log.Debug("opening accepted channel", zap.Error(err))
	}
}

func (m *Multiplexer) handleAccept(id uint8) {
	v, ok := m.requests.LoadAndDelete(id)
	if !ok {
		m.log.Warn("accept without a pending request", zap.Uint8("channel", id))
		if !m.inUse(id) {
			// The request gave up; don't leave the channel open remotely.
			if err := m.send(frame.CloseMessage{ChannelID: id}); err != nil {
				m.log.Warn("closing stale channel", zap.Uint8("channel", id), zap.Error(err))
			}
		}
		return
	}
	r := v.(*request)
	m.channels.Store(id, r.ch)
	if err := r.accept(); err != nil {
		m.log.Warn("accepting request", zap.Error(err))
	}
}

func (m *Multiplexer) inUse(id uint8) bool {
	if _, ok := m.channels.Load(id); ok {
		return true
	}
	_, ok := m.requests.Load(id)
	return ok
}

// channelClosed moves ch to StateClosed, removes it from the live
// channels and tells the handler. Only the first call for a channel has
// any effect.
func (m *Multiplexer) channelClosed(ch *Channel) {
	if ch.markClosed() {
		m.forget(ch)
	}
}

// forget removes a channel that was just closed from the live channels
// and tells the handler.
func (m *Multiplexer) forget(ch *Channel) {
	m.channels.CompareAndDelete(ch.id, ch)
	m.log.Debug("channel closed", zap.Uint8("channel", ch.id))
	m.handler.ChannelClosed(ch)
}

// send writes one frame to the shared sink. Any error writing closes the
// multiplexer before it is returned. The caller may hold an Output lock,
// so channels are closed without sending CLOSE frames.
func (m *Multiplexer) send(msg frame.Message) error {
	if err := m.enc.Encode(msg); err != nil {
		m.log.Warn("sending frame", zap.Stringer("kind", msg.Kind()), zap.Uint8("channel", msg.Channel()), zap.Error(err))
		m.shutdown(err, false)
		return err
	}
	return nil
}

// Channel returns the live channel with the given id, or nil.
func (m *Multiplexer) Channel(id uint8) *Channel {
	v, ok := m.channels.Load(id)
	if !ok {
		return nil
	}
	return v.(*Channel)
}

// Channels returns the live channels.
func (m *Multiplexer) Channels() []*Channel {
	var chans []*Channel
	m.channels.Range(func(_, v any) bool {
		chans = append(chans, v.(*Channel))
		return true
	})
	return chans
}

// NumChannels returns the number of live channels.
func (m *Multiplexer) NumChannels() int {
	n := 0
	m.channels.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// IsClosed reports whether the multiplexer has been closed.
func (m *Multiplexer) IsClosed() bool {
	return m.closed.Load()
}

// Done returns a channel that is closed once the multiplexer has shut
// down.
func (m *Multiplexer) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the multiplexer has shut down, and returns the error
// causing the shutdown. It is ErrClosed after a plain Close.
func (m *Multiplexer) Wait() error {
	<-m.done
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

// Close closes every live channel and then Config.Closer, if set. Errors
// closing channels are logged, not returned. Calling Close again is a
// no-op.
func (m *Multiplexer) Close() error {
	return m.shutdown(ErrClosed, true)
}

// shutdown closes the multiplexer for the given cause. Only the first call
// does anything; it returns the error of Config.Closer. Live channels are
// closed with Channel.Close when announce is set, otherwise only locally.
func (m *Multiplexer) shutdown(cause error, announce bool) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.errMu.Lock()
	m.err = cause
	m.errMu.Unlock()

	var errs error
	for _, ch := range m.Channels() {
		if !announce {
			m.channelClosed(ch)
			continue
		}
		errs = multierr.Append(errs, ch.Close())
	}
	if errs != nil {
		m.log.Debug("closing channels", zap.Errors("errors", multierr.Errors(errs)))
	}

	var closeErr error
	if m.closer != nil {
		closeErr = m.closer.Close()
	}

	m.log.Debug("multiplexer closed", zap.NamedError("cause", cause))
	close(m.done)
	return closeErr
}

func (m *Multiplexer) String() string {
	return fmt.Sprintf("Multiplexer { id=%s, channelcount=%d }", m.id, m.NumChannels())
}
