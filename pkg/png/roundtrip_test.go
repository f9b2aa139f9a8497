package png

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/raster.go/pkg/raster"
)

func TestRoundTrip_RGBA2x2Exact(t *testing.T) {
	// red, green, blue, yellow: the truecolor+alpha path is lossless.
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 0, 255,
	}
	encoded, err := Encode(pixels, 2, 2, nil)
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, pixels, img.Pixels)
	assert.Equal(t, ColorRGBA, img.Header.ColorType)
}

func TestRoundTrip_Grayscale(t *testing.T) {
	// Equal channels survive the luma collapse exactly.
	pixels := []byte{
		0, 0, 0, 255, 85, 85, 85, 255,
		170, 170, 170, 255, 255, 255, 255, 255,
	}
	encoded, err := Encode(pixels, 2, 2, &EncodeOptions{ColorType: ColorGray, BitDepth: 8})
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, pixels, img.Pixels)
}

func TestRoundTrip_GrayAlpha(t *testing.T) {
	pixels := []byte{
		100, 100, 100, 200, 50, 50, 50, 0,
	}
	encoded, err := Encode(pixels, 2, 1, &EncodeOptions{ColorType: ColorGrayAlpha, BitDepth: 8})
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, pixels, img.Pixels)
}

func TestRoundTrip_RGBDropsAlpha(t *testing.T) {
	pixels := []byte{10, 20, 30, 77}
	encoded, err := Encode(pixels, 1, 1, &EncodeOptions{ColorType: ColorRGB, BitDepth: 8})
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 255}, img.Pixels)
}

func TestRoundTrip_PaletteWithAlpha(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 128,
		255, 0, 0, 255, 0, 0, 255, 255,
	}
	encoded, err := Encode(pixels, 2, 2, &EncodeOptions{ColorType: ColorPalette, BitDepth: 8})
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, pixels, img.Pixels)

	chunks, err := ParseChunks(encoded[len(Signature):], nil)
	require.NoError(t, err)
	require.Len(t, FindChunksByType(chunks, "PLTE"), 1)
	require.Len(t, FindChunksByType(chunks, "tRNS"), 1)
}

func TestRoundTrip_PaletteOverflow(t *testing.T) {
	pixels := raster.Gradient(32, 32)
	_, err := Encode(pixels, 32, 32, &EncodeOptions{ColorType: ColorPalette, BitDepth: 8})
	require.Error(t, err)
}

func TestRoundTrip_Interlaced(t *testing.T) {
	pixels := raster.Gradient(13, 7)
	encoded, err := Encode(pixels, 13, 7, &EncodeOptions{Interlace: true})
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, InterlaceAdam7, img.Header.InterlaceMethod)
	assert.Equal(t, pixels, img.Pixels)
}

func TestRoundTrip_Metadata(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	md := &Metadata{
		Text:     map[string]string{"Software": "raster.go"},
		Time:     &ts,
		Gamma:    0.45455,
		Physical: &PhysicalDims{PPUX: 2835, PPUY: 2835, Unit: 1},
	}
	pixels := raster.Solid(4, 4, 1, 2, 3, 255)
	encoded, err := Encode(pixels, 4, 4, &EncodeOptions{Metadata: md})
	require.NoError(t, err)

	img, err := Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, "raster.go", img.Metadata.Text["Software"])
	require.NotNil(t, img.Metadata.Time)
	assert.True(t, ts.Equal(*img.Metadata.Time))
	assert.InDelta(t, 0.45455, img.Metadata.Gamma, 0.00001)
	require.NotNil(t, img.Metadata.Physical)
	assert.Equal(t, uint32(2835), img.Metadata.Physical.PPUX)
}

func TestDecode_SixteenBitTruncation(t *testing.T) {
	// Hand-built 2x1 16-bit grayscale image: samples 0x1234 and 0xFF01
	// must come back as 0x12 and 0xFF (high byte, no rounding).
	h := &IHDR{Width: 2, Height: 1, BitDepth: 16, ColorType: ColorGray}
	raw := []byte{0, 0x12, 0x34, 0xFF, 0x01} // filter byte + two samples
	idat, err := deflate(raw, -1)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(Signature)
	WriteChunk(&buf, "IHDR", h.Encode())
	WriteChunk(&buf, "IDAT", idat)
	WriteChunk(&buf, "IEND", nil)

	img, err := Decode(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x12, 0x12, 255, 0xFF, 0xFF, 0xFF, 255}, img.Pixels)
}

func TestDecode_SubBytePacked(t *testing.T) {
	// 8x1 1-bit grayscale: 0b10110100 alternates full white and black.
	h := &IHDR{Width: 8, Height: 1, BitDepth: 1, ColorType: ColorGray}
	idat, err := deflate([]byte{0, 0xB4}, -1)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(Signature)
	WriteChunk(&buf, "IHDR", h.Encode())
	WriteChunk(&buf, "IDAT", idat)
	WriteChunk(&buf, "IEND", nil)

	img, err := Decode(buf.Bytes(), nil)
	require.NoError(t, err)
	want := []byte{1, 0, 1, 1, 0, 1, 0, 0}
	for i, bit := range want {
		assert.Equal(t, bit*255, img.Pixels[i*4], "pixel %d", i)
	}
}

func TestDecode_BadSignature(t *testing.T) {
	_, err := Decode([]byte("not a png at all"), nil)
	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
}

func TestDecode_PixelDataSizeMismatch(t *testing.T) {
	// Declared 4x4 but only one scanline of data present.
	h := &IHDR{Width: 4, Height: 4, BitDepth: 8, ColorType: ColorGray}
	idat, err := deflate([]byte{0, 1, 2, 3, 4}, -1)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(Signature)
	WriteChunk(&buf, "IHDR", h.Encode())
	WriteChunk(&buf, "IDAT", idat)
	WriteChunk(&buf, "IEND", nil)

	_, err = Decode(buf.Bytes(), nil)
	var sizeErr *PixelDataSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 20, sizeErr.Want)
	assert.Equal(t, 5, sizeErr.Got)
}

func TestDecode_ColorKeyTransparency(t *testing.T) {
	// RGB image with a tRNS key of pure red: red pixels go transparent.
	h := &IHDR{Width: 2, Height: 1, BitDepth: 8, ColorType: ColorRGB}
	idat, err := deflate([]byte{0, 255, 0, 0, 0, 255, 0}, -1)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(Signature)
	WriteChunk(&buf, "IHDR", h.Encode())
	WriteChunk(&buf, "tRNS", []byte{0, 255, 0, 0, 0, 0})
	WriteChunk(&buf, "IDAT", idat)
	WriteChunk(&buf, "IEND", nil)

	img, err := Decode(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0), img.Pixels[3], "keyed pixel transparent")
	assert.Equal(t, byte(255), img.Pixels[7], "other pixel opaque")
}

func TestDecode_StrictCRC(t *testing.T) {
	pixels := raster.Solid(2, 2, 9, 9, 9, 255)
	encoded, err := Encode(pixels, 2, 2, &EncodeOptions{Metadata: &Metadata{Gamma: 0.45455}})
	require.NoError(t, err)

	// Corrupt the gAMA chunk CRC: an ancillary chunk, so a lenient decode
	// skips it while strict mode fails the whole stream.
	chunks, err := ParseChunks(encoded[len(Signature):], nil)
	require.NoError(t, err)
	gama := FindChunksByType(chunks, "gAMA")
	require.Len(t, gama, 1)
	crcPos := len(Signature) + gama[0].Offset + 8 + len(gama[0].Data)
	corrupted := append([]byte(nil), encoded...)
	corrupted[crcPos] ^= 0xFF

	img, err := Decode(corrupted, nil)
	require.NoError(t, err)
	assert.Zero(t, img.Metadata.Gamma)

	_, err = Decode(corrupted, &DecodeOptions{Strict: true})
	var crcErr *ChunkCRCError
	require.ErrorAs(t, err, &crcErr)
	assert.Equal(t, "gAMA", crcErr.ChunkType)
}

func TestEncode_SizeMismatchRejected(t *testing.T) {
	_, err := Encode(make([]byte, 10), 2, 2, nil)
	var sizeErr *raster.SizeMismatchError
	require.ErrorAs(t, err, &sizeErr)
}

func TestEncode_CompressionLevels(t *testing.T) {
	pixels := raster.Checkerboard(64, 64, 4)
	fast, err := Encode(pixels, 64, 64, &EncodeOptions{CompressionLevel: 1})
	require.NoError(t, err)
	best, err := Encode(pixels, 64, 64, &EncodeOptions{CompressionLevel: 9})
	require.NoError(t, err)

	for _, encoded := range [][]byte{fast, best} {
		img, err := Decode(encoded, nil)
		require.NoError(t, err)
		assert.Equal(t, pixels, img.Pixels)
	}
	assert.LessOrEqual(t, len(best), len(fast))
}
