package mux

import (
	"errors"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/progrium/chanmux/mux/frame"
)

// DefaultBufferSize is the capacity of a channel's Output when
// Config.BufferSize is not set.
const DefaultBufferSize = 8192

// DefaultMaxPayload bounds the payload of frames read by Serve when
// Config.MaxPayload is not set.
const DefaultMaxPayload = 64 << 20

// Config holds the collaborators and settings of a Multiplexer.
type Config struct {
	// IDs allocates ids for channels established locally. Defaults to a
	// new SimpleIDGenerator walking in Direction. A generator must not be
	// shared by multiplexers, so configs used for many connections should
	// leave IDs unset.
	IDs IDGenerator

	// Direction of the default id generator.
	Direction Direction

	// Input is the stream Serve reads frames from. It is never read by
	// Handle.
	Input io.Reader

	// Output is the sink all frames are written to. Required.
	Output io.Writer

	// Handler decides on channels requested by the remote side. Defaults
	// to AcceptAll.
	Handler Handler

	// Framing must match the remote side.
	Framing frame.Framing

	// BufferSize is the capacity of each channel's Output.
	BufferSize int

	// MaxPayload is the largest payload Serve accepts in one frame.
	// Defaults to DefaultMaxPayload.
	MaxPayload uint32

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Closer, if set, is closed after the multiplexer and its channels
	// have been closed. Usually the underlying connection.
	Closer io.Closer
}

func (c Config) withDefaults() (Config, error) {
	if c.Output == nil {
		return c, errors.New("chanmux: config has no output")
	}
	if c.BufferSize < 0 {
		return c, fmt.Errorf("chanmux: invalid buffer size %d", c.BufferSize)
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.MaxPayload == 0 {
		c.MaxPayload = DefaultMaxPayload
	}
	if c.IDs == nil {
		c.IDs = NewIDGenerator(c.Direction)
	}
	if c.Handler == nil {
		c.Handler = AcceptAll
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c, nil
}

// mapConfig holds the settings ConfigFromMap understands.
type mapConfig struct {
	Framing    string `mapstructure:"framing"`
	BufferSize int    `mapstructure:"buffer_size"`
	MaxPayload uint32 `mapstructure:"max_payload"`
	IDs        string `mapstructure:"ids"`
}

// ConfigFromMap builds a Config from loosely typed settings such as a
// parsed configuration file. Recognized keys are "framing" ("compact" or
// "new-payload"), "buffer_size", "max_payload" and "ids" ("incrementing"
// or "decrementing"). Collaborators like Output and Handler must be set on
// the returned Config.
func ConfigFromMap(m map[string]any) (Config, error) {
	var mc mapConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &mc,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(m); err != nil {
		return Config{}, fmt.Errorf("chanmux: decoding config: %w", err)
	}

	cfg := Config{BufferSize: mc.BufferSize, MaxPayload: mc.MaxPayload}
	switch mc.Framing {
	case "", "compact":
		cfg.Framing = frame.FramingCompact
	case "new-payload":
		cfg.Framing = frame.FramingNewPayload
	default:
		return Config{}, fmt.Errorf("chanmux: unknown framing %q", mc.Framing)
	}
	switch mc.IDs {
	case "", "incrementing":
		cfg.Direction = Incrementing
	case "decrementing":
		cfg.Direction = Decrementing
	default:
		return Config{}, fmt.Errorf("chanmux: unknown id direction %q", mc.IDs)
	}
	return cfg, nil
}
