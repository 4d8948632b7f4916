package main

import (
	"fmt"
	"os"

	"github.com/progrium/clon-go"
	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux"
)

// config builds a multiplexer config from key=value arguments, for
// example "framing=new-payload buffer_size=1024".
func config(args []string) (mux.Config, error) {
	settings := map[string]any{}
	if len(args) > 0 {
		var v any
		var err error
		v, err = clon.Parse(args)
		if err != nil {
			return mux.Config{}, err
		}
		m, ok := v.(map[string]any)
		if !ok {
			return mux.Config{}, fmt.Errorf("settings must be key=value pairs, got %T", v)
		}
		settings = m
	}
	cfg, err := mux.ConfigFromMap(settings)
	if err != nil {
		return mux.Config{}, err
	}
	cfg.Logger = logger()
	return cfg, nil
}

func logger() *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	if os.Getenv("CHANMUX_DEBUG") == "" {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	l, err := zcfg.Build()
	fatal(err)
	return l
}
