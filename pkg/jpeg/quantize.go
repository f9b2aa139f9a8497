package jpeg

import "math"

// Base quantization tables from ITU-T T.81 section K.1, natural
// (row-major) order.
var (
	baseLuminanceQuant = [64]int{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	}
	baseChrominanceQuant = [64]int{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	}
)

// ScaleQuantTable applies the IJG quality scaling to a base table:
// scale = 5000/q below 50, 200-2q at or above, each entry then
// clamp(floor((base*scale+50)/100), 1, 255).
func ScaleQuantTable(base *[64]int, quality int) (*[64]int, error) {
	if quality < 1 || quality > 100 {
		return nil, &InvalidQualityError{Quality: quality}
	}
	var scale int
	if quality < 50 {
		scale = 5000 / quality
	} else {
		scale = 200 - 2*quality
	}
	var out [64]int
	for i, v := range base {
		s := (v*scale + 50) / 100
		if s < 1 {
			s = 1
		}
		if s > 255 {
			s = 255
		}
		out[i] = s
	}
	return &out, nil
}

// QuantizeBlock divides each DCT coefficient by the matching table entry,
// rounding to nearest.
func QuantizeBlock(block *Block, table *[64]int) [64]int32 {
	var out [64]int32
	for i := range block {
		out[i] = int32(math.Round(block[i] / float64(table[i])))
	}
	return out
}

// DequantizeBlock multiplies quantized coefficients back up.
func DequantizeBlock(coeffs *[64]int32, table *[64]int) Block {
	var out Block
	for i := range coeffs {
		out[i] = float64(coeffs[i]) * float64(table[i])
	}
	return out
}
