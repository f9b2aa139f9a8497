package png

// Sample expansion and color-type normalization. Every decode path funnels
// through toRGBA to produce the canonical interleaved 8-bit RGBA buffer.

// unpackSamples expands one unfiltered scanline into one int per sample.
// Sub-byte depths are unpacked MSB-first; 16-bit samples keep only the high
// byte (truncation, not rounding, matching the historical behavior).
func unpackSamples(row []byte, bitDepth, count int) []int {
	out := make([]int, count)
	switch bitDepth {
	case 1, 2, 4:
		perByte := 8 / bitDepth
		mask := (1 << bitDepth) - 1
		for i := 0; i < count; i++ {
			b := row[i/perByte]
			shift := 8 - bitDepth*(i%perByte+1)
			out[i] = int(b>>shift) & mask
		}
	case 8:
		for i := 0; i < count; i++ {
			out[i] = int(row[i])
		}
	case 16:
		for i := 0; i < count; i++ {
			out[i] = int(row[i*2])
		}
	}
	return out
}

// scaleSample maps a raw sample at the given depth linearly onto [0,255].
// Palette indices must never pass through here.
func scaleSample(v, bitDepth int) byte {
	switch bitDepth {
	case 1:
		return byte(v * 255)
	case 2:
		return byte(v * 85)
	case 4:
		return byte(v * 17)
	default:
		return byte(v)
	}
}

// transparency carries the decoded tRNS payload for the current image.
type transparency struct {
	// gray/RGB color key, exact match drops alpha to zero
	hasKey bool
	keyR   int
	keyG   int
	keyB   int
	// per-palette-index alpha
	paletteAlpha []byte
}

func parseTRNS(data []byte, h *IHDR) *transparency {
	t := &transparency{}
	switch h.ColorType {
	case ColorGray:
		if len(data) >= 2 {
			t.hasKey = true
			v := int(data[0])<<8 | int(data[1])
			t.keyR, t.keyG, t.keyB = v, v, v
		}
	case ColorRGB:
		if len(data) >= 6 {
			t.hasKey = true
			t.keyR = int(data[0])<<8 | int(data[1])
			t.keyG = int(data[2])<<8 | int(data[3])
			t.keyB = int(data[4])<<8 | int(data[5])
		}
	case ColorPalette:
		t.paletteAlpha = data
	}
	return t
}

// keyByte reduces a 16-bit key component to the depth-scaled byte used for
// matching against reconstructed pixels.
func (t *transparency) keyBytes(bitDepth int) (r, g, b byte) {
	if bitDepth == 16 {
		return byte(t.keyR >> 8), byte(t.keyG >> 8), byte(t.keyB >> 8)
	}
	return scaleSample(t.keyR, bitDepth), scaleSample(t.keyG, bitDepth), scaleSample(t.keyB, bitDepth)
}

// rowToRGBA converts one scanline of raw samples into RGBA at dst, which
// must hold width*4 bytes. palette holds RGB triplets for color type 3.
func rowToRGBA(dst []byte, row []byte, width int, h *IHDR, palette []byte, trns *transparency) error {
	samples := unpackSamples(row, h.BitDepth, width*h.Channels())
	switch h.ColorType {
	case ColorGray:
		for x := 0; x < width; x++ {
			v := scaleSample(samples[x], h.BitDepth)
			dst[x*4] = v
			dst[x*4+1] = v
			dst[x*4+2] = v
			dst[x*4+3] = 255
		}
	case ColorRGB:
		for x := 0; x < width; x++ {
			dst[x*4] = scaleSample(samples[x*3], h.BitDepth)
			dst[x*4+1] = scaleSample(samples[x*3+1], h.BitDepth)
			dst[x*4+2] = scaleSample(samples[x*3+2], h.BitDepth)
			dst[x*4+3] = 255
		}
	case ColorPalette:
		for x := 0; x < width; x++ {
			idx := samples[x]
			if idx*3+2 >= len(palette) {
				return &StructuralError{Rule: "palette index out of range"}
			}
			dst[x*4] = palette[idx*3]
			dst[x*4+1] = palette[idx*3+1]
			dst[x*4+2] = palette[idx*3+2]
			alpha := byte(255)
			if trns != nil && idx < len(trns.paletteAlpha) {
				alpha = trns.paletteAlpha[idx]
			}
			dst[x*4+3] = alpha
		}
	case ColorGrayAlpha:
		for x := 0; x < width; x++ {
			v := scaleSample(samples[x*2], h.BitDepth)
			dst[x*4] = v
			dst[x*4+1] = v
			dst[x*4+2] = v
			dst[x*4+3] = scaleSample(samples[x*2+1], h.BitDepth)
		}
	case ColorRGBA:
		for x := 0; x < width; x++ {
			dst[x*4] = scaleSample(samples[x*4], h.BitDepth)
			dst[x*4+1] = scaleSample(samples[x*4+1], h.BitDepth)
			dst[x*4+2] = scaleSample(samples[x*4+2], h.BitDepth)
			dst[x*4+3] = scaleSample(samples[x*4+3], h.BitDepth)
		}
	default:
		return &InvalidHeaderError{Field: "colorType", Value: h.ColorType}
	}
	return nil
}

// applyColorKey zeroes the alpha of every pixel exactly matching the tRNS
// key color. Runs as a post-pass over the assembled RGBA buffer.
func applyColorKey(pixels []byte, h *IHDR, trns *transparency) {
	if trns == nil || !trns.hasKey {
		return
	}
	kr, kg, kb := trns.keyBytes(h.BitDepth)
	for i := 0; i+3 < len(pixels); i += 4 {
		if pixels[i] == kr && pixels[i+1] == kg && pixels[i+2] == kb {
			pixels[i+3] = 0
		}
	}
}
