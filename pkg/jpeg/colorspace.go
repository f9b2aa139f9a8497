package jpeg

import "math"

// ColorMatrix selects the RGB<->YCbCr coefficient set.
type ColorMatrix int

const (
	BT601 ColorMatrix = iota // ITU-R BT.601, the JPEG default
	BT709                    // ITU-R BT.709
)

// ColorRange bounds the converted components.
type ColorRange int

const (
	RangeFull    ColorRange = iota // Y and C in [0,255]
	RangeLimited                   // Y in [16,235], C in [16,240]
)

// Rounding selects how the matrix output is quantized to bytes.
type Rounding int

const (
	RoundNearest Rounding = iota
	RoundTruncate
	RoundHalfEven // banker's rounding
)

// ConvertOptions parameterizes a color-space conversion. The zero value is
// BT.601, full range, round to nearest.
type ConvertOptions struct {
	Matrix   ColorMatrix
	Range    ColorRange
	Rounding Rounding
}

type matrixCoeffs struct {
	kr, kg, kb float64
}

var matrices = map[ColorMatrix]matrixCoeffs{
	BT601: {kr: 0.299, kg: 0.587, kb: 0.114},
	BT709: {kr: 0.2126, kg: 0.7152, kb: 0.0722},
}

func (o *ConvertOptions) round(v float64) float64 {
	switch o.Rounding {
	case RoundTruncate:
		return math.Trunc(v)
	case RoundHalfEven:
		return math.RoundToEven(v)
	default:
		return math.Round(v)
	}
}

func clampRange(v float64, lo, hi float64) byte {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return byte(v)
}

func (o *ConvertOptions) clampLuma(v float64) byte {
	if o.Range == RangeLimited {
		return clampRange(v, 16, 235)
	}
	return clampRange(v, 0, 255)
}

func (o *ConvertOptions) clampChroma(v float64) byte {
	if o.Range == RangeLimited {
		return clampRange(v, 16, 240)
	}
	return clampRange(v, 0, 255)
}

// RGBToYCbCr converts one pixel. Chroma is centered at 128; the result is
// rounded then clamped to the selected range. The round trip is lossy by
// design, judged by error bounds rather than equality.
func RGBToYCbCr(r, g, b byte, opts *ConvertOptions) (byte, byte, byte) {
	if opts == nil {
		opts = &ConvertOptions{}
	}
	m := matrices[opts.Matrix]
	rf, gf, bf := float64(r), float64(g), float64(b)
	y := m.kr*rf + m.kg*gf + m.kb*bf
	cb := (bf-y)/(2*(1-m.kb)) + 128
	cr := (rf-y)/(2*(1-m.kr)) + 128
	if opts.Range == RangeLimited {
		y = 16 + y*219/255
		cb = 16 + (cb-128)*224/255 + 112
		cr = 16 + (cr-128)*224/255 + 112
	}
	return o3(opts, y, cb, cr)
}

func o3(opts *ConvertOptions, y, cb, cr float64) (byte, byte, byte) {
	return opts.clampLuma(opts.round(y)),
		opts.clampChroma(opts.round(cb)),
		opts.clampChroma(opts.round(cr))
}

// YCbCrToRGB converts one pixel back, clamping each channel to [0,255].
func YCbCrToRGB(y, cb, cr byte, opts *ConvertOptions) (byte, byte, byte) {
	if opts == nil {
		opts = &ConvertOptions{}
	}
	m := matrices[opts.Matrix]
	yf := float64(y)
	cbf := float64(cb)
	crf := float64(cr)
	if opts.Range == RangeLimited {
		yf = (yf - 16) * 255 / 219
		cbf = (cbf - 128) * 255 / 224
		crf = (crf - 128) * 255 / 224
	} else {
		cbf -= 128
		crf -= 128
	}
	r := yf + 2*(1-m.kr)*crf
	b := yf + 2*(1-m.kb)*cbf
	g := (yf - m.kr*r - m.kb*b) / m.kg
	return clampRange(opts.round(r), 0, 255),
		clampRange(opts.round(g), 0, 255),
		clampRange(opts.round(b), 0, 255)
}

// rgbaToYCbCrPlanes splits an interleaved RGBA buffer into planar Y, Cb,
// Cr, dropping alpha.
func rgbaToYCbCrPlanes(pixels []byte, width, height int, opts *ConvertOptions) [][]byte {
	n := width * height
	y := make([]byte, n)
	cb := make([]byte, n)
	cr := make([]byte, n)
	for i := 0; i < n; i++ {
		y[i], cb[i], cr[i] = RGBToYCbCr(pixels[i*4], pixels[i*4+1], pixels[i*4+2], opts)
	}
	return [][]byte{y, cb, cr}
}

// rgbaToGrayPlane collapses RGBA to a single luma plane.
func rgbaToGrayPlane(pixels []byte, width, height int, opts *ConvertOptions) []byte {
	n := width * height
	y := make([]byte, n)
	for i := 0; i < n; i++ {
		y[i], _, _ = RGBToYCbCr(pixels[i*4], pixels[i*4+1], pixels[i*4+2], opts)
	}
	return y
}

// ycbcrPlanesToRGBA interleaves planar Y, Cb, Cr back into opaque RGBA.
func ycbcrPlanesToRGBA(y, cb, cr []byte, width, height int, opts *ConvertOptions) []byte {
	n := width * height
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		r, g, b := YCbCrToRGB(y[i], cb[i], cr[i], opts)
		out[i*4] = r
		out[i*4+1] = g
		out[i*4+2] = b
		out[i*4+3] = 255
	}
	return out
}

// grayPlaneToRGBA replicates a luma plane across RGB with opaque alpha.
func grayPlaneToRGBA(y []byte, width, height int) []byte {
	n := width * height
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		out[i*4] = y[i]
		out[i*4+1] = y[i]
		out[i*4+2] = y[i]
		out[i*4+3] = 255
	}
	return out
}
