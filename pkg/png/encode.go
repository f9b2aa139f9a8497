package png

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"github.com/jpfielding/raster.go/pkg/raster"
)

// EncodeOptions controls the output representation. The zero value encodes
// non-interlaced 8-bit RGBA at the default compression level.
type EncodeOptions struct {
	// ColorType selects the stored color type (0, 2, 3, 4 or 6). The zero
	// options struct encodes RGBA; to store grayscale (color type 0) set
	// BitDepth explicitly.
	ColorType int
	// BitDepth of the stored samples. Only 8 is supported for encoding.
	BitDepth int
	// CompressionLevel is the zlib level 1-9; 0 selects the default.
	CompressionLevel int
	// Interlace emits Adam7 interlaced output.
	Interlace bool
	// Metadata is serialized to ancillary chunks before the pixel data.
	Metadata *Metadata
}

func (o *EncodeOptions) zlibLevel() int {
	if o.CompressionLevel == 0 {
		return zlib.DefaultCompression
	}
	return o.CompressionLevel
}

// Encode serializes an interleaved RGBA buffer as a PNG stream.
func Encode(pixels []byte, width, height int, opts *EncodeOptions) ([]byte, error) {
	if opts == nil {
		opts = &EncodeOptions{}
	}
	colorType := opts.ColorType
	if colorType == 0 && opts.BitDepth == 0 {
		colorType = ColorRGBA
	}
	bitDepth := opts.BitDepth
	if bitDepth == 0 {
		bitDepth = 8
	}
	if bitDepth != 8 {
		return nil, UnsupportedError(fmt.Sprintf("encoding bit depth %d (only 8 supported)", bitDepth))
	}
	switch colorType {
	case ColorGray, ColorRGB, ColorPalette, ColorGrayAlpha, ColorRGBA:
	default:
		return nil, &InvalidHeaderError{Field: "colorType", Value: colorType}
	}
	if lvl := opts.zlibLevel(); lvl != zlib.DefaultCompression && (lvl < zlib.NoCompression || lvl > zlib.BestCompression) {
		return nil, fmt.Errorf("png: invalid compression level %d", opts.CompressionLevel)
	}
	if err := raster.CheckRGBA("png encode", pixels, width, height); err != nil {
		return nil, err
	}

	h := &IHDR{
		Width:           uint32(width),
		Height:          uint32(height),
		BitDepth:        bitDepth,
		ColorType:       colorType,
		InterlaceMethod: InterlaceNone,
	}
	if opts.Interlace {
		h.InterlaceMethod = InterlaceAdam7
	}

	var pal *paletteBuilder
	if colorType == ColorPalette {
		var err error
		if pal, err = buildPalette(pixels); err != nil {
			return nil, err
		}
	}

	var raw bytes.Buffer
	if opts.Interlace {
		passes := interlaceRGBA(pixels, width, height)
		for i, p := range adam7 {
			if passes[i] == nil {
				continue
			}
			pw, ph := passSize(p, width, height)
			filterPlane(&raw, passes[i], pw, ph, h, pal)
		}
	} else {
		filterPlane(&raw, pixels, width, height, h, pal)
	}

	var idat bytes.Buffer
	zw, err := zlib.NewWriterLevel(&idat, opts.zlibLevel())
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(Signature)
	WriteChunk(&out, "IHDR", h.Encode())
	encodeMetadataChunks(&out, opts.Metadata, opts.zlibLevel())
	if pal != nil {
		WriteChunk(&out, "PLTE", pal.plte())
		if trns := pal.trns(); trns != nil {
			WriteChunk(&out, "tRNS", trns)
		}
	}
	WriteChunk(&out, "IDAT", idat.Bytes())
	WriteChunk(&out, "IEND", nil)
	return out.Bytes(), nil
}

// luma is the integer BT.601 weighting used when collapsing RGB to gray.
// Equal channels map to themselves exactly.
func luma(r, g, b byte) byte {
	return byte((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

// rowSamples converts one row of RGBA pixels to the stored sample layout.
func rowSamples(dst []byte, row []byte, width int, h *IHDR, pal *paletteBuilder) {
	switch h.ColorType {
	case ColorGray:
		for x := 0; x < width; x++ {
			dst[x] = luma(row[x*4], row[x*4+1], row[x*4+2])
		}
	case ColorRGB:
		for x := 0; x < width; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	case ColorPalette:
		for x := 0; x < width; x++ {
			dst[x] = pal.index(row[x*4], row[x*4+1], row[x*4+2], row[x*4+3])
		}
	case ColorGrayAlpha:
		for x := 0; x < width; x++ {
			dst[x*2] = luma(row[x*4], row[x*4+1], row[x*4+2])
			dst[x*2+1] = row[x*4+3]
		}
	case ColorRGBA:
		copy(dst, row[:width*4])
	}
}

// filterPlane converts an RGBA plane to stored samples, picks a filter per
// scanline and appends filter byte plus filtered line to raw.
func filterPlane(raw *bytes.Buffer, pixels []byte, width, height int, h *IHDR, pal *paletteBuilder) {
	rowBytes := h.RowBytes(width)
	bpp := h.BytesPerPixel()
	prev := make([]byte, rowBytes)
	cur := make([]byte, rowBytes)
	for y := 0; y < height; y++ {
		rowSamples(cur, pixels[y*width*4:(y+1)*width*4], width, h, pal)
		ft, line := chooseFilter(cur, prev, bpp)
		raw.WriteByte(ft)
		raw.Write(line)
		prev, cur = cur, prev
	}
}

// paletteBuilder collects the distinct RGBA colors of an image, capped at
// 256 entries, preserving first-seen order.
type paletteBuilder struct {
	colors  [][4]byte
	indexOf map[[4]byte]byte
}

func buildPalette(pixels []byte) (*paletteBuilder, error) {
	p := &paletteBuilder{indexOf: map[[4]byte]byte{}}
	for i := 0; i+3 < len(pixels); i += 4 {
		key := [4]byte{pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]}
		if _, ok := p.indexOf[key]; ok {
			continue
		}
		if len(p.colors) >= 256 {
			return nil, UnsupportedError("more than 256 distinct colors for palette encoding")
		}
		p.indexOf[key] = byte(len(p.colors))
		p.colors = append(p.colors, key)
	}
	return p, nil
}

func (p *paletteBuilder) index(r, g, b, a byte) byte {
	return p.indexOf[[4]byte{r, g, b, a}]
}

func (p *paletteBuilder) plte() []byte {
	out := make([]byte, len(p.colors)*3)
	for i, c := range p.colors {
		out[i*3] = c[0]
		out[i*3+1] = c[1]
		out[i*3+2] = c[2]
	}
	return out
}

// trns returns per-index alpha values, or nil when fully opaque.
func (p *paletteBuilder) trns() []byte {
	last := -1
	for i, c := range p.colors {
		if c[3] != 255 {
			last = i
		}
	}
	if last < 0 {
		return nil
	}
	out := make([]byte, last+1)
	for i := 0; i <= last; i++ {
		out[i] = p.colors[i][3]
	}
	return out
}
