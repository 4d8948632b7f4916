package mux

import (
	"fmt"

	"golang.org/x/net/websocket"
)

// DialWS establishes a multiplexer via WebSocket connection.
// The address must be a host and port. Opening a WebSocket
// connection at a particular path is not supported.
func DialWS(addr string, cfg Config) (*Multiplexer, error) {
	ws, err := websocket.Dial(fmt.Sprintf("ws://%s/", addr), "", fmt.Sprintf("http://%s/", addr))
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	m, err := NewConn(ws, cfg)
	if err != nil {
		ws.Close()
		return nil, err
	}
	return m, nil
}
