package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksToBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), BlocksToBytes(0))
	assert.Equal(t, int64(2048), BlocksToBytes(1))
	assert.Equal(t, int64(6144), BlocksToBytes(3))

	// The widening must survive the full uint32 range.
	assert.Equal(t, int64(1<<32-1)*2048, BlocksToBytes(1<<32-1))
}

func TestBytesToBlocksRoundsUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes  int64
		blocks uint32
	}{
		{0, 0},
		{1, 1},
		{2047, 1},
		{2048, 1},
		{2049, 2},
		{4096, 2},
		{4097, 3},
	}
	for _, tt := range tests {
		got, err := BytesToBlocks(tt.bytes)
		require.NoError(t, err)
		assert.Equal(t, tt.blocks, got, "bytes=%d", tt.bytes)
	}
}

func TestBytesToBlocksRoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []uint32{0, 1, 2, 100, 25000, 1 << 20, 1<<32 - 1} {
		got, err := BytesToBlocks(BlocksToBytes(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestBytesToBlocksOverflow(t *testing.T) {
	t.Parallel()

	_, err := BytesToBlocks(-1)
	assert.ErrorIs(t, err, ErrSizeOverflow)

	_, err = BytesToBlocks(maxBytes + 1)
	assert.ErrorIs(t, err, ErrSizeOverflow)

	got, err := BytesToBlocks(maxBytes)
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<32-1), got)
}
