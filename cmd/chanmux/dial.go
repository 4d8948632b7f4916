package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/progrium/chanmux/mux"
	"github.com/progrium/chanmux/transport/quic"
)

// A Dialer connects to addr and establishes a multiplexer.
type Dialer func(addr string, cfg mux.Config) (*mux.Multiplexer, error)

// A Listen func listens on addr for multiplexer connections.
type Listen func(addr string, cfg mux.Config) (mux.Acceptor, error)

// Dialers and Listeners map URL schemes to transports.
var (
	Dialers   map[string]Dialer
	Listeners map[string]Listen
)

func init() {
	Dialers = map[string]Dialer{
		"tcp":  mux.DialTCP,
		"unix": mux.DialUnix,
		"ws":   mux.DialWS,
		"quic": func(addr string, cfg mux.Config) (*mux.Multiplexer, error) {
			return quic.Dial(context.Background(), addr, &tls.Config{InsecureSkipVerify: true}, cfg)
		},
		"stdio": func(_ string, cfg mux.Config) (*mux.Multiplexer, error) {
			return mux.DialStdio(cfg)
		},
	}
	Listeners = map[string]Listen{
		"tcp": func(addr string, cfg mux.Config) (mux.Acceptor, error) {
			return mux.ListenTCP(addr, cfg)
		},
		"unix": func(addr string, cfg mux.Config) (mux.Acceptor, error) {
			return mux.ListenUnix(addr, cfg)
		},
		"ws": mux.ListenWS,
		"quic": func(addr string, cfg mux.Config) (mux.Acceptor, error) {
			return quic.Listen(addr, generateTLSConfig(), cfg)
		},
		"stdio": func(_ string, cfg mux.Config) (mux.Acceptor, error) {
			return mux.ListenStdio(cfg)
		},
	}
}

// endpoint returns the transport and address named by a URL such as
// tcp://localhost:9000 or unix:///tmp/mux.sock.
func endpoint(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "unix" {
		return u.Scheme, u.Path, nil
	}
	return u.Scheme, u.Host, nil
}

func dial(raw string, cfg mux.Config) (*mux.Multiplexer, error) {
	transport, addr, err := endpoint(raw)
	if err != nil {
		return nil, err
	}
	d, ok := Dialers[transport]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not in available in Dialers", transport)
	}
	return d(addr, cfg)
}

func listen(raw string, cfg mux.Config) (mux.Acceptor, error) {
	transport, addr, err := endpoint(raw)
	if err != nil {
		return nil, err
	}
	l, ok := Listeners[transport]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not in available in Listeners", transport)
	}
	return l(addr, cfg)
}
