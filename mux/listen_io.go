package mux

import (
	"io"
	"net"
	"os"
	"sync"
)

// ioListener wraps a single ReadWriteCloser to use as a listener.
type ioListener struct {
	io.ReadWriteCloser
	cfg Config

	once sync.Once
}

// Accept returns the wrapped ReadWriteCloser as a multiplexer the first
// time it is called and io.EOF after that.
func (l *ioListener) Accept() (*Multiplexer, error) {
	first := false
	l.once.Do(func() { first = true })
	if !first {
		return nil, io.EOF
	}
	return NewConn(l.ReadWriteCloser, l.cfg)
}

func (l *ioListener) Addr() net.Addr {
	return nil
}

type ioduplex struct {
	io.WriteCloser
	io.ReadCloser
}

func (d *ioduplex) Close() error {
	if err := d.WriteCloser.Close(); err != nil {
		return err
	}
	if err := d.ReadCloser.Close(); err != nil {
		return err
	}
	return nil
}

// ListenIO returns an Acceptor that gives a multiplexer based on separate
// WriteCloser and ReadClosers.
func ListenIO(out io.WriteCloser, in io.ReadCloser, cfg Config) (Acceptor, error) {
	return &ioListener{
		ReadWriteCloser: &ioduplex{out, in},
		cfg:             cfg,
	}, nil
}

// ListenStdio is a convenience for calling ListenIO with Stdout and Stdin.
func ListenStdio(cfg Config) (Acceptor, error) {
	return ListenIO(os.Stdout, os.Stdin, cfg)
}
