package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRGBA(t *testing.T) {
	assert.NoError(t, CheckRGBA("test", make([]byte, 16), 2, 2))

	err := CheckRGBA("test", make([]byte, 15), 2, 2)
	var sizeErr *SizeMismatchError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 16, sizeErr.Want)
	assert.Equal(t, 15, sizeErr.Got)
	assert.Contains(t, err.Error(), "test")

	var dimErr *DimensionError
	require.ErrorAs(t, CheckRGBA("test", nil, 0, 5), &dimErr)
	require.ErrorAs(t, CheckRGBA("test", nil, 5, -1), &dimErr)
}

func TestClampByte(t *testing.T) {
	assert.Equal(t, byte(0), ClampByte(-1))
	assert.Equal(t, byte(0), ClampByte(0))
	assert.Equal(t, byte(200), ClampByte(200))
	assert.Equal(t, byte(255), ClampByte(255))
	assert.Equal(t, byte(255), ClampByte(300))
}

func TestDetectFormat(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}
	assert.Equal(t, FormatPNG, DetectFormat(png))
	assert.Equal(t, FormatJPEG, DetectFormat([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("GIF89a")))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
	// A truncated PNG signature is not a PNG.
	assert.Equal(t, FormatUnknown, DetectFormat(png[:7]))
}
