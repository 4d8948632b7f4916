// Package muxtest connects multiplexers in memory for tests.
package muxtest

import (
	"io"
	"sync"

	"github.com/progrium/chanmux/mux"
)

// Medium carries frames written by one multiplexer to another. Every
// Write is one frame. Writes never block; frames are queued without bound
// and handed to the peer's Handle, in order, on a goroutine of the Medium.
type Medium struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	busy   bool
	closed bool
	frames int
	errs   []error
	done   chan struct{}
}

// NewMedium returns a Medium that queues frames until Connect is called.
func NewMedium() *Medium {
	md := &Medium{done: make(chan struct{})}
	md.cond = sync.NewCond(&md.mu)
	return md
}

// Write queues a copy of p as one frame.
func (md *Medium) Write(p []byte) (int, error) {
	md.mu.Lock()
	defer md.mu.Unlock()
	if md.closed {
		return 0, io.ErrClosedPipe
	}
	md.queue = append(md.queue, append([]byte(nil), p...))
	md.frames++
	md.cond.Broadcast()
	return len(p), nil
}

// Connect starts delivering frames to peer.
func (md *Medium) Connect(peer *mux.Multiplexer) {
	go md.deliver(peer)
}

func (md *Medium) deliver(peer *mux.Multiplexer) {
	defer close(md.done)
	for {
		md.mu.Lock()
		for len(md.queue) == 0 && !md.closed {
			md.cond.Wait()
		}
		if len(md.queue) == 0 {
			md.mu.Unlock()
			return
		}
		raw := md.queue[0]
		md.queue = md.queue[1:]
		md.busy = true
		md.mu.Unlock()

		err := peer.Handle(raw)

		md.mu.Lock()
		if err != nil {
			md.errs = append(md.errs, err)
		}
		md.busy = false
		md.cond.Broadcast()
		md.mu.Unlock()
	}
}

// Settle blocks until every queued frame has been handled.
func (md *Medium) Settle() {
	md.mu.Lock()
	defer md.mu.Unlock()
	for (len(md.queue) > 0 || md.busy) && !md.stopped() {
		md.cond.Wait()
	}
}

func (md *Medium) idle() bool {
	md.mu.Lock()
	defer md.mu.Unlock()
	return len(md.queue) == 0 && !md.busy
}

func (md *Medium) stopped() bool {
	select {
	case <-md.done:
		return true
	default:
		return false
	}
}

// Frames returns the number of frames written so far.
func (md *Medium) Frames() int {
	md.mu.Lock()
	defer md.mu.Unlock()
	return md.frames
}

// Errors returns the errors returned by the peer's Handle.
func (md *Medium) Errors() []error {
	md.mu.Lock()
	defer md.mu.Unlock()
	return append([]error(nil), md.errs...)
}

// Close rejects further writes, delivers the frames already queued and
// waits for delivery to stop. Close must not be called before Connect.
func (md *Medium) Close() error {
	md.mu.Lock()
	md.closed = true
	md.cond.Broadcast()
	md.mu.Unlock()
	<-md.done
	return nil
}

// Pair is two multiplexers connected by Mediums.
type Pair struct {
	A, B *mux.Multiplexer

	// AtoB carries frames written by A, BtoA frames written by B.
	AtoB, BtoA *Medium
}

// NewPair connects two multiplexers. Output and Input of the configs are
// replaced. Unless IDs is set, A allocates ids incrementing and B
// decrementing.
func NewPair(cfgA, cfgB mux.Config) (*Pair, error) {
	p := &Pair{AtoB: NewMedium(), BtoA: NewMedium()}

	cfgA.Input, cfgA.Output = nil, p.AtoB
	cfgB.Input, cfgB.Output = nil, p.BtoA
	if cfgA.IDs == nil {
		cfgA.Direction = mux.Incrementing
	}
	if cfgB.IDs == nil {
		cfgB.Direction = mux.Decrementing
	}

	var err error
	if p.A, err = mux.New(cfgA); err != nil {
		return nil, err
	}
	if p.B, err = mux.New(cfgB); err != nil {
		return nil, err
	}
	p.AtoB.Connect(p.B)
	p.BtoA.Connect(p.A)
	return p, nil
}

// Settle blocks until no frames are in flight in either direction.
func (p *Pair) Settle() {
	for {
		p.AtoB.Settle()
		p.BtoA.Settle()
		if p.AtoB.idle() && p.BtoA.idle() {
			return
		}
	}
}

// Close closes both multiplexers and then both Mediums.
func (p *Pair) Close() error {
	p.A.Close()
	p.B.Close()
	p.AtoB.Close()
	p.BtoA.Close()
	return nil
}
