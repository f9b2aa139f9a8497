package jpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitWriter_MSBFirst(t *testing.T) {
	bw := &BitWriter{}
	bw.WriteBits(0b101, 3)
	bw.WriteBits(0b01101, 5)
	assert.Equal(t, []byte{0b10101101}, bw.Bytes())
}

func TestBitWriter_StuffsFF(t *testing.T) {
	bw := &BitWriter{}
	bw.WriteBits(0xFF, 8)
	bw.WriteBits(0xAB, 8)
	assert.Equal(t, []byte{0xFF, 0x00, 0xAB}, bw.Bytes())
}

func TestBitWriter_FlushPadsWithOnes(t *testing.T) {
	bw := &BitWriter{}
	bw.WriteBits(0b10, 2)
	bw.Flush()
	assert.Equal(t, []byte{0b10111111}, bw.Bytes())

	// Flush on a byte boundary writes nothing.
	bw = &BitWriter{}
	bw.WriteBits(0x41, 8)
	bw.Flush()
	assert.Equal(t, []byte{0x41}, bw.Bytes())
}

func TestBitReader_RoundTripThroughWriter(t *testing.T) {
	bw := &BitWriter{}
	values := []struct{ v, n int }{
		{0b1, 1}, {0b0110, 4}, {0xFF, 8}, {0x1FF, 9}, {0, 3}, {0b101, 3},
	}
	for _, x := range values {
		bw.WriteBits(x.v, x.n)
	}
	bw.Flush()

	br := NewBitReader(bw.Bytes())
	for _, x := range values {
		got, err := br.ReadBits(x.n)
		require.NoError(t, err)
		assert.Equal(t, x.v, got)
	}
}

func TestBitReader_Unstuffs(t *testing.T) {
	br := NewBitReader([]byte{0xFF, 0x00, 0x12})
	got, err := br.ReadBits(16)
	require.NoError(t, err)
	assert.Equal(t, 0xFF12, got)
}

func TestBitReader_StopsAtMarker(t *testing.T) {
	br := NewBitReader([]byte{0xAB, 0xFF, 0xD9})
	_, err := br.ReadBits(8)
	require.NoError(t, err)
	_, err = br.ReadBit()
	assert.ErrorIs(t, err, ErrMarkerEncountered)
}

func TestBitReader_Truncated(t *testing.T) {
	br := NewBitReader([]byte{0xAB})
	_, err := br.ReadBits(16)
	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
}

func TestBitReader_SkipMarker(t *testing.T) {
	// Partially consumed byte, then an RST0 marker, then more data.
	br := NewBitReader([]byte{0b10000000, 0xFF, 0xD0, 0x55})
	bit, err := br.ReadBit()
	require.NoError(t, err)
	assert.Equal(t, 1, bit)

	m, err := br.SkipMarker()
	require.NoError(t, err)
	assert.Equal(t, byte(MarkerRST0), m)

	got, err := br.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, 0x55, got)
}
