// Package quic runs a multiplexer over a single bidirectional QUIC
// stream.
package quic

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"

	"github.com/quic-go/quic-go"

	"github.com/progrium/chanmux/mux"
)

// NextProto is the ALPN protocol used when the TLS config names none.
const NextProto = "chanmux"

// A stream is not announced to the peer until data is written to it, so
// the dialing side writes this byte first.
const preamble = '!'

// streamConn closes the whole connection along with its stream.
type streamConn struct {
	quic.Stream
	conn quic.Connection
}

func (c *streamConn) Close() error {
	c.Stream.CancelRead(0)
	c.Stream.Close()
	return c.conn.CloseWithError(0, "multiplexer closed")
}

func withProto(tlsConf *tls.Config) *tls.Config {
	conf := tlsConf.Clone()
	if conf == nil {
		conf = &tls.Config{}
	}
	if len(conf.NextProtos) == 0 {
		conf.NextProtos = []string{NextProto}
	}
	return conf
}

// New opens the stream of a multiplexer on conn. The other side must call
// Accept.
func New(ctx context.Context, conn quic.Connection, cfg mux.Config) (*mux.Multiplexer, error) {
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := stream.Write([]byte{preamble}); err != nil {
		return nil, err
	}
	return mux.NewConn(&streamConn{stream, conn}, cfg)
}

// Accept waits for the stream opened by New on the other side of conn.
func Accept(ctx context.Context, conn quic.Connection, cfg mux.Config) (*mux.Multiplexer, error) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	var b [1]byte
	if _, err := io.ReadFull(stream, b[:]); err != nil {
		return nil, err
	}
	if b[0] != preamble {
		stream.CancelRead(0)
		return nil, fmt.Errorf("quic: unexpected preamble %#x", b[0])
	}
	return mux.NewConn(&streamConn{stream, conn}, cfg)
}

// Dial connects to addr and establishes a multiplexer.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, cfg mux.Config) (*mux.Multiplexer, error) {
	conn, err := quic.DialAddr(ctx, addr, withProto(tlsConf), nil)
	if err != nil {
		return nil, err
	}
	m, err := New(ctx, conn, cfg)
	if err != nil {
		conn.CloseWithError(0, err.Error())
		return nil, err
	}
	return m, nil
}

// Listener returns a multiplexer for every QUIC connection accepted.
type Listener struct {
	l   *quic.Listener
	cfg mux.Config
}

// Listen listens for QUIC connections on addr. tlsConf must hold a
// certificate.
func Listen(addr string, tlsConf *tls.Config, cfg mux.Config) (*Listener, error) {
	l, err := quic.ListenAddr(addr, withProto(tlsConf), nil)
	if err != nil {
		return nil, err
	}
	return &Listener{l: l, cfg: cfg}, nil
}

// Accept waits for the next connection and its multiplexer stream.
func (l *Listener) Accept() (*mux.Multiplexer, error) {
	ctx := context.Background()
	conn, err := l.l.Accept(ctx)
	if err != nil {
		return nil, err
	}
	m, err := Accept(ctx, conn, l.cfg)
	if err != nil {
		conn.CloseWithError(0, err.Error())
		return nil, err
	}
	return m, nil
}

// Close closes the listener.
// Any blocked Accept operations will be unblocked and return errors.
func (l *Listener) Close() error {
	return l.l.Close()
}

func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}

var _ mux.Acceptor = (*Listener)(nil)
