package jpeg

import (
	"math"
	"sync"
)

// Block is one 8x8 matrix in row-major order: sample values before the
// forward transform, frequency coefficients after. Index [0] is the DC
// term.
type Block [64]float64

const blockEdge = 8

// cosTable[u][x] = cos((2x+1)*u*pi/16), built once on first use and
// read-only afterwards.
var (
	cosOnce  sync.Once
	cosTable [blockEdge][blockEdge]float64
	normC    [blockEdge]float64
)

func initCosTable() {
	for u := 0; u < blockEdge; u++ {
		for x := 0; x < blockEdge; x++ {
			cosTable[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16)
		}
		normC[u] = 1
	}
	normC[0] = 1 / math.Sqrt2
}

// ForwardDCT applies the 2D 8-point DCT-II:
// F(u,v) = 0.25*C(u)*C(v) * sum f(x,y)*cos((2x+1)u pi/16)*cos((2y+1)v pi/16).
func ForwardDCT(block *Block) Block {
	cosOnce.Do(initCosTable)
	var out Block
	for v := 0; v < blockEdge; v++ {
		for u := 0; u < blockEdge; u++ {
			var sum float64
			for y := 0; y < blockEdge; y++ {
				for x := 0; x < blockEdge; x++ {
					sum += block[y*blockEdge+x] * cosTable[u][x] * cosTable[v][y]
				}
			}
			out[v*blockEdge+u] = 0.25 * normC[u] * normC[v] * sum
		}
	}
	return out
}

// InverseDCT applies the matching DCT-III, reconstructing spatial samples
// within a small floating-point tolerance of the original block.
func InverseDCT(block *Block) Block {
	cosOnce.Do(initCosTable)
	var out Block
	for y := 0; y < blockEdge; y++ {
		for x := 0; x < blockEdge; x++ {
			var sum float64
			for v := 0; v < blockEdge; v++ {
				for u := 0; u < blockEdge; u++ {
					sum += normC[u] * normC[v] * block[v*blockEdge+u] * cosTable[u][x] * cosTable[v][y]
				}
			}
			out[y*blockEdge+x] = 0.25 * sum
		}
	}
	return out
}

// LevelShift subtracts 128 from every sample, centering [0,255] on zero
// ahead of the forward transform.
func LevelShift(block *Block) {
	for i := range block {
		block[i] -= 128
	}
}

// LevelUnshift adds the 128 bias back after the inverse transform.
func LevelUnshift(block *Block) {
	for i := range block {
		block[i] += 128
	}
}
