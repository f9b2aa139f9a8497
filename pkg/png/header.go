package png

import "encoding/binary"

// Color types, as per the PNG spec.
const (
	ColorGray      = 0
	ColorRGB       = 2
	ColorPalette   = 3
	ColorGrayAlpha = 4
	ColorRGBA      = 6
)

// Interlace methods.
const (
	InterlaceNone  = 0
	InterlaceAdam7 = 1
)

// IHDR is the decoded 13-byte image header.
type IHDR struct {
	Width           uint32
	Height          uint32
	BitDepth        int
	ColorType       int
	CompressionMeth int
	FilterMethod    int
	InterlaceMethod int
}

// Channels returns the sample count per pixel for the color type.
func (h *IHDR) Channels() int {
	switch h.ColorType {
	case ColorGray, ColorPalette:
		return 1
	case ColorGrayAlpha:
		return 2
	case ColorRGB:
		return 3
	case ColorRGBA:
		return 4
	}
	return 0
}

// BytesPerPixel returns the filter unit: the pixel width in whole bytes,
// with sub-byte depths rounded up to 1.
func (h *IHDR) BytesPerPixel() int {
	bpp := h.Channels() * h.BitDepth / 8
	if bpp < 1 {
		bpp = 1
	}
	return bpp
}

// RowBytes returns the byte length of one unfiltered scanline for the
// given pixel width.
func (h *IHDR) RowBytes(width int) int {
	return (width*h.Channels()*h.BitDepth + 7) / 8
}

// validDepths maps color type to its allowed bit depths.
var validDepths = map[int][]int{
	ColorGray:      {1, 2, 4, 8, 16},
	ColorRGB:       {8, 16},
	ColorPalette:   {1, 2, 4, 8},
	ColorGrayAlpha: {8, 16},
	ColorRGBA:      {8, 16},
}

// ParseIHDR decodes and validates the fixed 13-byte IHDR payload.
func ParseIHDR(data []byte) (*IHDR, error) {
	if len(data) != 13 {
		return nil, &InvalidHeaderError{Field: "length", Value: len(data)}
	}
	h := &IHDR{
		Width:           binary.BigEndian.Uint32(data[0:4]),
		Height:          binary.BigEndian.Uint32(data[4:8]),
		BitDepth:        int(data[8]),
		ColorType:       int(data[9]),
		CompressionMeth: int(data[10]),
		FilterMethod:    int(data[11]),
		InterlaceMethod: int(data[12]),
	}
	if h.Width == 0 || h.Width > 0x7FFFFFFF {
		return nil, &InvalidHeaderError{Field: "width", Value: int(int32(h.Width))}
	}
	if h.Height == 0 || h.Height > 0x7FFFFFFF {
		return nil, &InvalidHeaderError{Field: "height", Value: int(int32(h.Height))}
	}
	depths, ok := validDepths[h.ColorType]
	if !ok {
		return nil, &InvalidHeaderError{Field: "colorType", Value: h.ColorType}
	}
	allowed := false
	for _, d := range depths {
		if d == h.BitDepth {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &InvalidHeaderError{Field: "bitDepth", Value: h.BitDepth}
	}
	if h.CompressionMeth != 0 {
		return nil, &InvalidHeaderError{Field: "compressionMethod", Value: h.CompressionMeth}
	}
	if h.FilterMethod != 0 {
		return nil, &InvalidHeaderError{Field: "filterMethod", Value: h.FilterMethod}
	}
	if h.InterlaceMethod != InterlaceNone && h.InterlaceMethod != InterlaceAdam7 {
		return nil, &InvalidHeaderError{Field: "interlaceMethod", Value: h.InterlaceMethod}
	}
	return h, nil
}

// Encode serializes the header to exactly 13 bytes.
func (h *IHDR) Encode() []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], h.Width)
	binary.BigEndian.PutUint32(data[4:8], h.Height)
	data[8] = byte(h.BitDepth)
	data[9] = byte(h.ColorType)
	data[10] = byte(h.CompressionMeth)
	data[11] = byte(h.FilterMethod)
	data[12] = byte(h.InterlaceMethod)
	return data
}
