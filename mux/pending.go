package mux

import "context"

// Pending is the eventual result of AsyncEstablishNewChannel.
type Pending struct {
	done chan struct{}
	ch   *Channel
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(ch *Channel, err error) {
	p.ch = ch
	p.err = err
	close(p.done)
}

// Done returns a channel that is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the channel is established or ctx is done. Giving up
// on the wait does not cancel the negotiation.
func (p *Pending) Wait(ctx context.Context) (*Channel, error) {
	select {
	case <-p.done:
		return p.ch, p.err
	case <-ctx.Done():
		return nil, ctxErr(ctx)
	}
}

// Get blocks until the result is available.
func (p *Pending) Get() (*Channel, error) {
	<-p.done
	return p.ch, p.err
}

// Result returns the result without blocking. ok is false while the
// negotiation is still running.
func (p *Pending) Result() (ch *Channel, err error, ok bool) {
	select {
	case <-p.done:
		return p.ch, p.err, true
	default:
		return nil, nil, false
	}
}
