package jpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigzag_IsPermutation(t *testing.T) {
	seen := [64]bool{}
	for _, n := range unzig {
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 64)
		require.False(t, seen[n], "index %d mapped twice", n)
		seen[n] = true
	}
}

func TestZigzag_KnownPositions(t *testing.T) {
	// DC first, then the first anti-diagonal, ending at the bottom-right.
	assert.Equal(t, 0, unzig[0])
	assert.Equal(t, 1, unzig[1])
	assert.Equal(t, 8, unzig[2])
	assert.Equal(t, 16, unzig[3])
	assert.Equal(t, 63, unzig[63])

	// zig inverts unzig.
	for z, n := range unzig {
		assert.Equal(t, z, zig[n])
	}
}

func TestZigzag_RoundTrip(t *testing.T) {
	var block [64]int32
	for i := range block {
		block[i] = int32(i * 3)
	}
	seq := ZigzagFlatten(&block)
	got := ZigzagExpand(&seq)
	assert.Equal(t, block, got)
}

func TestZigzag_OrdersByFrequency(t *testing.T) {
	// A block whose only nonzero entries sit on the first row spreads them
	// across early zigzag positions.
	var block [64]int32
	block[1] = 7 // natural index 1 is zigzag position 1
	block[8] = 9 // natural index 8 is zigzag position 2
	seq := ZigzagFlatten(&block)
	assert.Equal(t, int32(7), seq[1])
	assert.Equal(t, int32(9), seq[2])
	assert.Equal(t, int32(0), seq[0])
}
