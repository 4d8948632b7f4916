package mux

import "io"

// NewConn returns a multiplexer running over conn and starts serving it in
// a goroutine. Closing the multiplexer closes conn. Input, Output and
// Closer of cfg are replaced.
func NewConn(conn io.ReadWriteCloser, cfg Config) (*Multiplexer, error) {
	cfg.Input = conn
	cfg.Output = conn
	cfg.Closer = conn
	m, err := New(cfg)
	if err != nil {
		return nil, err
	}
	go m.Serve()
	return m, nil
}
