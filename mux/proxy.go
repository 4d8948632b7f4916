package mux

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Proxy returns a Handler that bridges every channel requested on the
// multiplexer it is installed on to a new channel opened on dst. Payloads
// are forwarded in both directions as sent, and closing either side closes
// the other. If the channel on dst cannot be opened within timeout the
// request is declined with the error as reason. A zero timeout waits
// indefinitely.
func Proxy(dst *Multiplexer, timeout time.Duration) Handler {
	return HandlerFuncs{
		OnRequest: func(src *Channel, initial []byte) Decision {
			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			b, err := dst.Open(ctx, initial, ListenerFunc(func(data []byte) {
				if err := src.Send(data); err != nil {
					dst.log.Debug("proxy to source", zap.Uint8("channel", src.ID()), zap.Error(err))
				}
			}))
			if err != nil {
				return Decline(err.Error())
			}
			src.AddListener(ListenerFunc(func(data []byte) {
				if err := b.Send(data); err != nil {
					dst.log.Debug("proxy to destination", zap.Uint8("channel", b.ID()), zap.Error(err))
				}
			}))
			go func() {
				select {
				case <-src.Done():
				case <-b.Done():
				}
				src.Close()
				b.Close()
			}()
			return Accept()
		},
	}
}
