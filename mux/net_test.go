package mux_test

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progrium/chanmux/mux"
	"github.com/progrium/chanmux/mux/frame"
)

// echo returns a handler that sends every payload back on its channel.
func echo() mux.Handler {
	return mux.HandlerFuncs{
		OnRequest: func(ch *mux.Channel, _ []byte) mux.Decision {
			ch.AddListener(mux.ListenerFunc(func(data []byte) {
				ch.Send(data)
			}))
			return mux.Accept()
		},
	}
}

func testEcho(t *testing.T, client *mux.Multiplexer) {
	t.Helper()
	rec := newRecorder()
	ch, err := client.EstablishNewChannel(5*time.Second, nil)
	fatal(err, t)
	ch.AddListener(rec)

	for _, msg := range []string{"Hello world", "", "again"} {
		fatal(ch.Send([]byte(msg)), t)
		assert.Equal(t, msg, string(rec.next(t)))
	}
	fatal(ch.Close(), t)
}

func TestTCP(t *testing.T) {
	l, err := mux.ListenTCP("127.0.0.1:0", mux.Config{
		Handler:   echo(),
		Direction: mux.Decrementing,
	})
	fatal(err, t)
	defer l.Close()

	accepted := make(chan *mux.Multiplexer, 1)
	go func() {
		m, err := l.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- m
	}()

	client, err := mux.DialTCP(l.Addr().String(), mux.Config{})
	fatal(err, t)
	testEcho(t, client)

	server := <-accepted
	require.NotNil(t, server)

	fatal(client.Close(), t)
	assert.ErrorIs(t, client.Wait(), mux.ErrClosed)

	select {
	case <-server.Done():
		assert.Equal(t, io.EOF, server.Wait())
	case <-time.After(5 * time.Second):
		t.Fatal("server did not see the connection close")
	}
	assert.Equal(t, 0, server.NumChannels())
}

func TestServeReturnsReadError(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	m, err := mux.New(mux.Config{Input: a, Output: a, Closer: a})
	fatal(err, t)

	served := make(chan error, 1)
	go func() { served <- m.Serve() }()

	// a frame of an unknown kind loses sync with the stream
	_, err = b.Write([]byte{1, 9})
	fatal(err, t)

	select {
	case err := <-served:
		var invalid *mux.InvalidDataError
		assert.True(t, errors.As(err, &invalid), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.True(t, m.IsClosed())
}

func TestServeWithoutInput(t *testing.T) {
	m, err := mux.New(mux.Config{Output: io.Discard})
	fatal(err, t)
	assert.Error(t, m.Serve())
}

func TestWebSocket(t *testing.T) {
	l, err := mux.ListenWS("127.0.0.1:0", mux.Config{
		Handler:   echo(),
		Direction: mux.Decrementing,
	})
	fatal(err, t)
	defer l.Close()

	go func() {
		for {
			if _, err := l.Accept(); err != nil {
				return
			}
		}
	}()

	client, err := mux.DialWS(l.Addr().String(), mux.Config{})
	fatal(err, t)
	defer client.Close()
	testEcho(t, client)
}

func TestListenIO(t *testing.T) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()

	l, err := mux.ListenIO(bw, br, mux.Config{Handler: echo(), Direction: mux.Decrementing})
	fatal(err, t)
	server, err := l.Accept()
	fatal(err, t)
	defer server.Close()
	_, err = l.Accept()
	assert.Equal(t, io.EOF, err)

	client, err := mux.DialIO(aw, ar, mux.Config{})
	fatal(err, t)
	defer client.Close()
	testEcho(t, client)
}

func TestServeRejectsOversizedFrame(t *testing.T) {
	for name, tc := range map[string]struct {
		max    uint32
		header []byte
	}{
		"default limit": {0, []byte{1, byte(frame.KindData), 0xff, 0xff, 0xff, 0xff}},
		"configured":    {8, []byte{1, byte(frame.KindData), 9, 0, 0, 0}},
	} {
		t.Run(name, func(t *testing.T) {
			a, b := net.Pipe()
			defer b.Close()

			m, err := mux.New(mux.Config{Input: a, Output: a, Closer: a, MaxPayload: tc.max})
			fatal(err, t)

			served := make(chan error, 1)
			go func() { served <- m.Serve() }()

			// only the header is written; the payload is never read
			_, err = b.Write(tc.header)
			fatal(err, t)

			select {
			case err := <-served:
				var invalid *mux.InvalidDataError
				assert.ErrorAs(t, err, &invalid)
			case <-time.After(5 * time.Second):
				t.Fatal("Serve did not return")
			}
			assert.True(t, m.IsClosed())
		})
	}
}

func TestListenerIDsPerConnection(t *testing.T) {
	l, err := mux.ListenTCP("127.0.0.1:0", mux.Config{Direction: mux.Decrementing})
	fatal(err, t)
	defer l.Close()

	for i := 0; i < 2; i++ {
		client, err := mux.DialTCP(l.Addr().String(), mux.Config{})
		fatal(err, t)
		defer client.Close()

		server, err := l.Accept()
		fatal(err, t)
		defer server.Close()

		ch, err := server.EstablishNewChannel(5*time.Second, nil)
		fatal(err, t)
		assert.Equal(t, uint8(0x7f), ch.ID(), "connection %d", i)
	}
}
