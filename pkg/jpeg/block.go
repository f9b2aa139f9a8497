package jpeg

import (
	"math"

	"github.com/jpfielding/raster.go/pkg/raster"
)

// MCUGrid describes the block partition of one channel plane.
type MCUGrid struct {
	BlocksX int
	BlocksY int
	PaddedW int
	PaddedH int
}

// CalculateMCUGrid partitions width x height into 8x8 blocks, padding the
// canvas up to whole blocks.
func CalculateMCUGrid(width, height int) MCUGrid {
	bx := (width + blockEdge - 1) / blockEdge
	by := (height + blockEdge - 1) / blockEdge
	return MCUGrid{
		BlocksX: bx,
		BlocksY: by,
		PaddedW: bx * blockEdge,
		PaddedH: by * blockEdge,
	}
}

// ExtractBlock copies the 8x8 block at block coordinate (bx,by) out of a
// single-channel plane. Samples past the image edge replicate the nearest
// boundary value; the plane itself is never indexed out of bounds.
func ExtractBlock(plane []byte, width, height, bx, by int) Block {
	var out Block
	for y := 0; y < blockEdge; y++ {
		sy := by*blockEdge + y
		if sy >= height {
			sy = height - 1
		}
		for x := 0; x < blockEdge; x++ {
			sx := bx*blockEdge + x
			if sx >= width {
				sx = width - 1
			}
			out[y*blockEdge+x] = float64(plane[sy*width+sx])
		}
	}
	return out
}

// PlaceBlock writes an 8x8 block back into a single-channel plane at block
// coordinate (bx,by), rounding and clamping each sample to [0,255] and
// dropping samples past the image edge.
func PlaceBlock(plane []byte, width, height, bx, by int, block *Block) {
	for y := 0; y < blockEdge; y++ {
		sy := by*blockEdge + y
		if sy >= height {
			continue
		}
		for x := 0; x < blockEdge; x++ {
			sx := bx*blockEdge + x
			if sx >= width {
				continue
			}
			plane[sy*width+sx] = raster.ClampByte(int(math.Round(block[y*blockEdge+x])))
		}
	}
}

// SeparateChannels slices every channel plane into its full block grid,
// outer index channel, inner index by*BlocksX+bx.
func SeparateChannels(planes [][]byte, width, height int) [][]Block {
	grid := CalculateMCUGrid(width, height)
	out := make([][]Block, len(planes))
	for c, plane := range planes {
		blocks := make([]Block, grid.BlocksX*grid.BlocksY)
		for by := 0; by < grid.BlocksY; by++ {
			for bx := 0; bx < grid.BlocksX; bx++ {
				blocks[by*grid.BlocksX+bx] = ExtractBlock(plane, width, height, bx, by)
			}
		}
		out[c] = blocks
	}
	return out
}

// CombineChannels is the inverse of SeparateChannels, reassembling channel
// planes from block grids.
func CombineChannels(channels [][]Block, width, height int) [][]byte {
	grid := CalculateMCUGrid(width, height)
	out := make([][]byte, len(channels))
	for c, blocks := range channels {
		plane := make([]byte, width*height)
		for by := 0; by < grid.BlocksY; by++ {
			for bx := 0; bx < grid.BlocksX; bx++ {
				b := blocks[by*grid.BlocksX+bx]
				PlaceBlock(plane, width, height, bx, by, &b)
			}
		}
		out[c] = plane
	}
	return out
}
