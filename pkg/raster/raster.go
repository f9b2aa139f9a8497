// Package raster holds the pixel-buffer conventions shared by the PNG and
// JPEG codecs: every decoder produces, and every encoder consumes, an
// interleaved RGBA buffer with one byte per channel, row-major, no padding.
package raster

import "fmt"

// BytesPerPixel is the channel count of the canonical RGBA buffer.
const BytesPerPixel = 4

// SizeMismatchError reports a pixel buffer whose length is inconsistent with
// the declared dimensions. It is always raised before any indexing happens.
type SizeMismatchError struct {
	Context string
	Want    int
	Got     int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: pixel buffer size mismatch: want %d bytes, got %d", e.Context, e.Want, e.Got)
}

// DimensionError reports out-of-range image dimensions.
type DimensionError struct {
	Width  int
	Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("invalid image dimensions %dx%d", e.Width, e.Height)
}

// CheckRGBA validates that pixels holds exactly width*height RGBA quadruples.
func CheckRGBA(context string, pixels []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return &DimensionError{Width: width, Height: height}
	}
	want := width * height * BytesPerPixel
	if len(pixels) != want {
		return &SizeMismatchError{Context: context, Want: want, Got: len(pixels)}
	}
	return nil
}

// ClampByte clamps v to [0,255].
func ClampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Format identifies a container by its magic bytes.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatUnknown Format = "unknown"
)

// DetectFormat sniffs the leading bytes of data.
func DetectFormat(data []byte) Format {
	switch {
	case len(data) >= 8 &&
		data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' &&
		data[4] == '\r' && data[5] == '\n' && data[6] == 0x1a && data[7] == '\n':
		return FormatPNG
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return FormatJPEG
	default:
		return FormatUnknown
	}
}
