package mux

import (
	"math"
	"sync"
)

// IDGenerator allocates channel ids for locally established channels.
// NextID returns ErrExhausted once no ids are left.
type IDGenerator interface {
	NextID() (uint8, error)
}

// Direction selects the order in which a SimpleIDGenerator walks the id
// space. Peers sharing a transport should use opposite directions.
type Direction int

const (
	Incrementing Direction = iota
	Decrementing
)

func (d Direction) String() string {
	if d == Decrementing {
		return "decrementing"
	}
	return "incrementing"
}

// SimpleIDGenerator hands out ids by walking a signed byte counter from
// one end of its range to the other. Ids are never reused, so a generator
// is good for 255 channels.
type SimpleIDGenerator struct {
	mu      sync.Mutex
	dir     Direction
	counter int8
}

// NewIDGenerator returns a SimpleIDGenerator starting at -128 (0x80) when
// incrementing or 127 (0x7f) when decrementing.
func NewIDGenerator(dir Direction) *SimpleIDGenerator {
	g := &SimpleIDGenerator{dir: dir, counter: math.MinInt8}
	if dir == Decrementing {
		g.counter = math.MaxInt8
	}
	return g
}

func (g *SimpleIDGenerator) NextID() (uint8, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dir == Decrementing {
		if g.counter == math.MinInt8 {
			return 0, ErrExhausted
		}
		id := g.counter
		g.counter--
		return uint8(id), nil
	}

	if g.counter == math.MaxInt8 {
		return 0, ErrExhausted
	}
	id := g.counter
	g.counter++
	return uint8(id), nil
}

// Direction returns the direction the generator walks in.
func (g *SimpleIDGenerator) Direction() Direction {
	return g.dir
}

// IDGeneratorFunc adapts a function to the IDGenerator interface.
type IDGeneratorFunc func() (uint8, error)

func (f IDGeneratorFunc) NextID() (uint8, error) {
	return f()
}
