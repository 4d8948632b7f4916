package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux"
)

var proxyCmd = &Command{
	Usage: "proxy <listen-url> <upstream-url> [key=value ...]",
	Short: "bridge channels accepted on one endpoint to another",
	Args:  MinArgs(2),
	Run: func(ctx context.Context, args []string) {
		cfg, err := config(args[2:])
		fatal(err)

		upstream, err := dial(args[1], cfg)
		fatal(err)
		defer upstream.Close()

		lcfg := cfg
		lcfg.Direction = mux.Decrementing
		lcfg.Handler = mux.Proxy(upstream, 10*time.Second)
		l, err := listen(args[0], lcfg)
		fatal(err)
		defer l.Close()
		cfg.Logger.Info("proxying", zap.String("from", args[0]), zap.String("to", args[1]))

		go func() {
			<-upstream.Done()
			cfg.Logger.Info("upstream closed")
			l.Close()
		}()

		for {
			m, err := l.Accept()
			if err != nil {
				return
			}
			cfg.Logger.Info("connected", zap.String("mux", m.ID()))
		}
	},
}
