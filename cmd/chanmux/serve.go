package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux"
)

var serveCmd = &Command{
	Usage: "serve <url> [key=value ...]",
	Short: "accept channels and echo their payloads",
	Args:  MinArgs(1),
	Run: func(ctx context.Context, args []string) {
		cfg, err := config(args[1:])
		fatal(err)
		cfg.Direction = mux.Decrementing
		cfg.Handler = echoHandler(cfg.Logger)

		l, err := listen(args[0], cfg)
		fatal(err)
		defer l.Close()
		cfg.Logger.Info("listening", zap.String("url", args[0]))

		for {
			m, err := l.Accept()
			if err != nil {
				cfg.Logger.Info("listener closed", zap.Error(err))
				return
			}
			cfg.Logger.Info("connected", zap.String("mux", m.ID()))
			go func() {
				err := m.Wait()
				cfg.Logger.Info("disconnected", zap.String("mux", m.ID()), zap.NamedError("cause", err))
			}()
		}
	},
}

func echoHandler(log *zap.Logger) mux.Handler {
	return mux.HandlerFuncs{
		OnRequest: func(ch *mux.Channel, initial []byte) mux.Decision {
			ch.AddListener(mux.ListenerFunc(func(data []byte) {
				if err := ch.Send(data); err != nil {
					log.Warn("echo", zap.Uint8("channel", ch.ID()), zap.Error(err))
				}
			}))
			if len(initial) > 0 {
				ch.Send(initial)
			}
			return mux.Accept()
		},
		OnClosed: func(ch *mux.Channel) {
			log.Debug("channel closed", zap.Uint8("channel", ch.ID()))
		},
	}
}
