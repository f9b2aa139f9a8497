package png

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_RoundTripAllTypes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	line := make([]byte, 32)
	prev := make([]byte, 32)
	rng.Read(line)
	rng.Read(prev)

	for _, bpp := range []int{1, 3, 4} {
		for ft := byte(0); ft < nFilter; ft++ {
			t.Run(fmt.Sprintf("filter%d_bpp%d", ft, bpp), func(t *testing.T) {
				filtered, err := ApplyFilter(ft, line, prev, bpp)
				require.NoError(t, err)

				got := append([]byte(nil), filtered...)
				require.NoError(t, ReverseFilter(ft, got, prev, bpp))
				assert.Equal(t, line, got)
			})
		}
	}
}

func TestFilter_FirstRow(t *testing.T) {
	// The first scanline sees an all-zero previous row.
	line := []byte{10, 20, 30, 40, 50, 60}
	prev := make([]byte, len(line))
	for ft := byte(0); ft < nFilter; ft++ {
		filtered, err := ApplyFilter(ft, line, prev, 3)
		require.NoError(t, err)
		got := append([]byte(nil), filtered...)
		require.NoError(t, ReverseFilter(ft, got, prev, 3))
		assert.Equal(t, line, got)
	}
}

func TestFilter_BadType(t *testing.T) {
	err := ReverseFilter(5, []byte{1}, []byte{0}, 1)
	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
}

func TestPaeth_TieBreaking(t *testing.T) {
	// Ties prefer left, then up, then upleft.
	assert.Equal(t, byte(5), paeth(5, 5, 5))
	// p = 20+20-10 = 30: pa=10, pb=10 -> left wins the tie with up
	assert.Equal(t, byte(20), paeth(20, 20, 10))
	// p = 0+30-10 = 20: pb=10, pc=10 -> up wins the tie with upleft
	assert.Equal(t, byte(30), paeth(0, 30, 10))
}

func TestPaeth_PicksClosest(t *testing.T) {
	// p = 100+50-40 = 110: distances a=10, b=60, c=70.
	assert.Equal(t, byte(100), paeth(100, 50, 40))
	// p = 10+200-15 = 195: distances a=185, b=5, c=180.
	assert.Equal(t, byte(200), paeth(10, 200, 15))
}

func TestChooseFilter_PrefersCompressible(t *testing.T) {
	// A constant line filters to all zeros under Sub; None keeps the raw
	// values. The heuristic must not pick None here.
	line := make([]byte, 24)
	for i := range line {
		line[i] = 200
	}
	prev := make([]byte, 24)
	ft, filtered := chooseFilter(line, prev, 3)
	assert.NotEqual(t, byte(FilterNone), ft)

	got := append([]byte(nil), filtered...)
	require.NoError(t, ReverseFilter(ft, got, prev, 3))
	assert.Equal(t, line, got)
}
