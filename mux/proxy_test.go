package mux_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux"
	"github.com/progrium/chanmux/mux/muxtest"
)

// setupProxy connects a client through a proxy to a server running the
// given handler and returns the client side.
func setupProxy(t *testing.T, server mux.Handler) *mux.Multiplexer {
	t.Helper()
	// the bridging goroutines outlive the test
	nop := zap.NewNop()

	upstream, err := muxtest.NewPair(mux.Config{Logger: nop}, mux.Config{Logger: nop, Handler: server})
	fatal(err, t)
	t.Cleanup(func() { upstream.Close() })

	front, err := muxtest.NewPair(mux.Config{Logger: nop}, mux.Config{
		Logger:  nop,
		Handler: mux.Proxy(upstream.A, time.Second),
	})
	fatal(err, t)
	t.Cleanup(func() { front.Close() })

	return front.A
}

func TestProxyDuplex(t *testing.T) {
	client := setupProxy(t, echo())

	rec := newRecorder()
	ch, err := client.Open(context.Background(), nil, rec)
	fatal(err, t)

	fatal(ch.Send([]byte("A -> a <-> b -> B")), t)
	assert.Equal(t, "A -> a <-> b -> B", string(rec.next(t)))
	fatal(ch.Send([]byte("again")), t)
	assert.Equal(t, "again", string(rec.next(t)))
}

func TestProxyClosePropagates(t *testing.T) {
	closed := make(chan struct{})
	client := setupProxy(t, mux.HandlerFuncs{
		OnClosed: func(*mux.Channel) { close(closed) },
	})

	ch, err := client.EstablishNewChannel(time.Second, nil)
	fatal(err, t)
	fatal(ch.Close(), t)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("close did not reach the server")
	}
}

func TestProxyDeclined(t *testing.T) {
	client := setupProxy(t, mux.HandlerFuncs{
		OnRequest: func(*mux.Channel, []byte) mux.Decision {
			return mux.Decline("nope")
		},
	})

	_, err := client.EstablishNewChannel(time.Second, nil)
	var declined *mux.DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Contains(t, declined.Reason, "nope")
}
