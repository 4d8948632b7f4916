package mux

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux/frame"
)

// Serve reads frames from Config.Input and handles them until the
// transport fails or the multiplexer is closed. Frames that cannot be
// dispatched are logged and skipped. A read error closes the multiplexer
// and is returned, except for io.EOF and reads failing because the
// multiplexer was closed, which return nil. Frames declaring a payload
// larger than Config.MaxPayload fail the transport. Once reading fails,
// channels are closed without sending CLOSE frames.
func (m *Multiplexer) Serve() error {
	if m.in == nil {
		return errors.New("chanmux: config has no input")
	}

	dec := frame.NewDecoder(m.in, m.framing)
	dec.MaxPayload = m.maxPayload
	for {
		raw, err := dec.Decode()
		if err != nil {
			if m.IsClosed() {
				return nil
			}
			if err == io.EOF {
				m.shutdown(io.EOF, false)
				return nil
			}
			m.log.Warn("reading frame", zap.Error(err))
			m.shutdown(err, false)
			return err
		}

		if err := m.Handle(raw); err != nil {
			if m.IsClosed() {
				return nil
			}
			m.log.Debug("dropping frame", zap.Binary("frame", truncate(raw, 16)), zap.Error(err))
		}
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
