package mux_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progrium/chanmux/mux"
)

func drain(t *testing.T, g mux.IDGenerator) []uint8 {
	t.Helper()
	var ids []uint8
	for {
		id, err := g.NextID()
		if err != nil {
			require.ErrorIs(t, err, mux.ErrExhausted)
			return ids
		}
		ids = append(ids, id)
		require.LessOrEqual(t, len(ids), 256, "generator never runs out")
	}
}

func TestIDGeneratorIncrementing(t *testing.T) {
	g := mux.NewIDGenerator(mux.Incrementing)
	assert.Equal(t, mux.Incrementing, g.Direction())

	ids := drain(t, g)
	require.Len(t, ids, 255)
	assert.Equal(t, uint8(0x80), ids[0])
	assert.Equal(t, uint8(0x81), ids[1])
	assert.Equal(t, uint8(0xff), ids[127])
	assert.Equal(t, uint8(0x00), ids[128])
	assert.Equal(t, uint8(0x7e), ids[254])

	_, err := g.NextID()
	assert.ErrorIs(t, err, mux.ErrExhausted)
}

func TestIDGeneratorDecrementing(t *testing.T) {
	g := mux.NewIDGenerator(mux.Decrementing)
	assert.Equal(t, "decrementing", g.Direction().String())

	ids := drain(t, g)
	require.Len(t, ids, 255)
	assert.Equal(t, uint8(0x7f), ids[0])
	assert.Equal(t, uint8(0x7e), ids[1])
	assert.Equal(t, uint8(0x81), ids[254])
}

func TestIDsNeverRepeat(t *testing.T) {
	for _, dir := range []mux.Direction{mux.Incrementing, mux.Decrementing} {
		seen := make(map[uint8]bool)
		for _, id := range drain(t, mux.NewIDGenerator(dir)) {
			assert.False(t, seen[id], "%s generator repeated %d", dir, id)
			seen[id] = true
		}
	}
}
