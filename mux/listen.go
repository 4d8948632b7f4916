package mux

import "net"

// An Acceptor is similar to a net.Listener but returns connections
// wrapped as multiplexers.
type Acceptor interface {
	// Close closes the listener.
	// Any blocked Accept operations will be unblocked and return errors.
	Close() error

	// Accept waits for and returns the next connected multiplexer.
	Accept() (*Multiplexer, error)

	// Addr returns the listener's network address if available.
	Addr() net.Addr
}
