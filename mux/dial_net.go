package mux

import (
	"net"
)

func dialNet(proto, addr string, cfg Config) (*Multiplexer, error) {
	conn, err := net.Dial(proto, addr)
	if err != nil {
		return nil, err
	}
	m, err := NewConn(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

// DialTCP establishes a multiplexer via TCP connection.
func DialTCP(addr string, cfg Config) (*Multiplexer, error) {
	return dialNet("tcp", addr, cfg)
}

// DialUnix establishes a multiplexer via Unix domain socket.
func DialUnix(path string, cfg Config) (*Multiplexer, error) {
	return dialNet("unix", path, cfg)
}
