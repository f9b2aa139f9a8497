package raster

import "math"

// Test-pattern generators shared by the codec test suites and the CLI.
// Each returns an interleaved RGBA buffer.

// Solid fills width*height pixels with a single RGBA color.
func Solid(width, height int, r, g, b, a byte) []byte {
	px := make([]byte, width*height*BytesPerPixel)
	for i := 0; i < len(px); i += BytesPerPixel {
		px[i] = r
		px[i+1] = g
		px[i+2] = b
		px[i+3] = a
	}
	return px
}

// Gradient produces a horizontal red / vertical green ramp, opaque alpha.
func Gradient(width, height int) []byte {
	px := make([]byte, width*height*BytesPerPixel)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * BytesPerPixel
			px[i] = byte(x * 255 / max(width-1, 1))
			px[i+1] = byte(y * 255 / max(height-1, 1))
			px[i+2] = 128
			px[i+3] = 255
		}
	}
	return px
}

// Checkerboard alternates black and white cells of the given size.
func Checkerboard(width, height, cell int) []byte {
	px := make([]byte, width*height*BytesPerPixel)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * BytesPerPixel
			v := byte(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			px[i] = v
			px[i+1] = v
			px[i+2] = v
			px[i+3] = 255
		}
	}
	return px
}

// ErrorStats summarizes the per-byte difference between two equal-length
// buffers. Lossy round trips are judged by bounds on these, never equality.
type ErrorStats struct {
	Max  float64
	Avg  float64
	RMSE float64
}

// CompareBuffers computes error statistics between two buffers of equal size.
func CompareBuffers(a, b []byte) ErrorStats {
	if len(a) == 0 || len(a) != len(b) {
		return ErrorStats{Max: math.Inf(1)}
	}
	var sum, sumSq, maxDiff float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		sum += d
		sumSq += d * d
		if d > maxDiff {
			maxDiff = d
		}
	}
	n := float64(len(a))
	return ErrorStats{
		Max:  maxDiff,
		Avg:  sum / n,
		RMSE: math.Sqrt(sumSq / n),
	}
}
