// Package png implements a PNG decoder and encoder working over in-memory
// byte buffers. Decoded pixels are always normalized to interleaved 8-bit
// RGBA regardless of the source color type and bit depth.
package png

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/jpfielding/raster.go/pkg/raster"
)

// Image is the result of a decode: canonical RGBA pixels plus any
// ancillary-chunk metadata.
type Image struct {
	Width    int
	Height   int
	Pixels   []byte // interleaved RGBA
	Metadata *Metadata
	Header   *IHDR
}

// DecodeOptions controls decode-time validation.
type DecodeOptions struct {
	// Strict makes any CRC mismatch fatal. When false a corrupt ancillary
	// chunk is skipped; corrupt critical chunks still fail the decode.
	Strict bool
}

// Decode parses a complete PNG byte stream.
//
// Pipeline: signature -> chunk parse + structure validation -> IHDR ->
// IDAT inflate -> filter reversal -> bit depth / color type / interlace /
// transparency reconstruction -> metadata extraction.
func Decode(data []byte, opts *DecodeOptions) (*Image, error) {
	if opts == nil {
		opts = &DecodeOptions{}
	}
	if len(data) < len(Signature) || !bytes.Equal(data[:len(Signature)], Signature) {
		return nil, &StructuralError{Rule: "bad PNG signature"}
	}
	chunks, err := ParseChunks(data[len(Signature):], &ParseOptions{ValidateCRC: true, Strict: opts.Strict})
	if err != nil {
		return nil, err
	}
	if err := ValidateChunkStructure(chunks); err != nil {
		return nil, err
	}

	ihdrChunk := chunks[0]
	if !ihdrChunk.Valid {
		return nil, &ChunkCRCError{ChunkType: "IHDR", Offset: ihdrChunk.Offset}
	}
	h, err := ParseIHDR(ihdrChunk.Data)
	if err != nil {
		return nil, err
	}

	var palette []byte
	var trns *transparency
	var idat bytes.Buffer
	for _, c := range chunks {
		switch c.Type {
		case "PLTE":
			if !c.Valid {
				return nil, &ChunkCRCError{ChunkType: "PLTE", Offset: c.Offset}
			}
			if len(c.Data)%3 != 0 || len(c.Data) == 0 {
				return nil, &StructuralError{Rule: "PLTE length must be a non-zero multiple of 3", Offset: c.Offset}
			}
			palette = c.Data
		case "tRNS":
			if c.Valid {
				trns = parseTRNS(c.Data, h)
			}
		case "IDAT":
			if !c.Valid {
				return nil, &ChunkCRCError{ChunkType: "IDAT", Offset: c.Offset}
			}
			idat.Write(c.Data)
		}
	}
	if h.ColorType == ColorPalette && palette == nil {
		return nil, &StructuralError{Rule: "palette color type without PLTE chunk"}
	}

	zr, err := zlib.NewReader(&idat)
	if err != nil {
		return nil, fmt.Errorf("png: idat stream: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("png: idat stream: %w", err)
	}

	width, height := int(h.Width), int(h.Height)
	var pixels []byte
	if h.InterlaceMethod == InterlaceAdam7 {
		pixels, err = reconstructInterlaced(raw, h, palette, trns)
	} else {
		pixels, err = reconstructPlane(raw, width, height, h, palette, trns)
	}
	if err != nil {
		return nil, err
	}
	applyColorKey(pixels, h, trns)

	return &Image{
		Width:    width,
		Height:   height,
		Pixels:   pixels,
		Metadata: extractMetadata(chunks),
		Header:   h,
	}, nil
}

// reconstructPlane reverses per-scanline filters over a non-interlaced (or
// single-pass) raw plane and converts it to RGBA. The size check runs
// before any reconstruction so no index can run past the buffer.
func reconstructPlane(raw []byte, width, height int, h *IHDR, palette []byte, trns *transparency) ([]byte, error) {
	rowBytes := h.RowBytes(width)
	want := (rowBytes + 1) * height
	if len(raw) != want {
		return nil, &PixelDataSizeError{Want: want, Got: len(raw)}
	}
	bpp := h.BytesPerPixel()
	pixels := make([]byte, width*height*raster.BytesPerPixel)
	prev := make([]byte, rowBytes)
	for y := 0; y < height; y++ {
		line := raw[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
		cur := line[1:]
		if err := ReverseFilter(line[0], cur, prev, bpp); err != nil {
			return nil, err
		}
		if err := rowToRGBA(pixels[y*width*4:(y+1)*width*4], cur, width, h, palette, trns); err != nil {
			return nil, err
		}
		prev = cur
	}
	return pixels, nil
}

// reconstructInterlaced decodes the 7 Adam7 passes stored back to back in
// raw and reassembles the full-resolution image.
func reconstructInterlaced(raw []byte, h *IHDR, palette []byte, trns *transparency) ([]byte, error) {
	width, height := int(h.Width), int(h.Height)

	// Fail fast on total size before touching any pass.
	want := 0
	for _, p := range adam7 {
		pw, ph := passSize(p, width, height)
		if pw == 0 || ph == 0 {
			continue
		}
		want += (h.RowBytes(pw) + 1) * ph
	}
	if len(raw) != want {
		return nil, &PixelDataSizeError{Want: want, Got: len(raw)}
	}

	var passes [7][]byte
	off := 0
	for i, p := range adam7 {
		pw, ph := passSize(p, width, height)
		if pw == 0 || ph == 0 {
			continue
		}
		passLen := (h.RowBytes(pw) + 1) * ph
		passPixels, err := reconstructPlane(raw[off:off+passLen], pw, ph, h, palette, trns)
		if err != nil {
			return nil, err
		}
		passes[i] = passPixels
		off += passLen
	}
	return deinterlaceRGBA(passes, width, height), nil
}
