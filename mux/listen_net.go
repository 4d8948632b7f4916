package mux

import (
	"net"
)

// NetListener wraps a net.Listener to return connected multiplexers.
type NetListener struct {
	net.Listener

	// Config is used for every accepted connection.
	Config Config
}

// ListenerFrom returns an Acceptor giving a multiplexer for every
// connection accepted from l.
func ListenerFrom(l net.Listener, cfg Config) *NetListener {
	return &NetListener{Listener: l, Config: cfg}
}

// Accept waits for and returns the next connected multiplexer.
func (l *NetListener) Accept() (*Multiplexer, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	m, err := NewConn(conn, l.Config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the listener.
// Any blocked Accept operations will be unblocked and return errors.
func (l *NetListener) Close() error {
	return l.Listener.Close()
}

func listenNet(proto, addr string, cfg Config) (*NetListener, error) {
	l, err := net.Listen(proto, addr)
	if err != nil {
		return nil, err
	}
	return ListenerFrom(l, cfg), nil
}

// ListenTCP creates a TCP listener at the given address.
func ListenTCP(addr string, cfg Config) (*NetListener, error) {
	return listenNet("tcp", addr, cfg)
}

// ListenUnix creates a Unix domain socket listener at the given path.
func ListenUnix(path string, cfg Config) (*NetListener, error) {
	return listenNet("unix", path, cfg)
}
