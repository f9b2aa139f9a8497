package jpeg

// unzig maps zigzag position to row-major index: unzig[z] is the natural
// index of the z'th coefficient in zigzag order, DC first.
var unzig = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// zig is the inverse mapping: zig[natural] is the zigzag position.
var zig = func() [64]int {
	var z [64]int
	for i, n := range unzig {
		z[n] = i
	}
	return z
}()

// ZigzagFlatten reorders a row-major coefficient block into zigzag order.
func ZigzagFlatten(block *[64]int32) [64]int32 {
	var out [64]int32
	for z := 0; z < 64; z++ {
		out[z] = block[unzig[z]]
	}
	return out
}

// ZigzagExpand reorders a zigzag sequence back to row-major.
func ZigzagExpand(seq *[64]int32) [64]int32 {
	var out [64]int32
	for z := 0; z < 64; z++ {
		out[unzig[z]] = seq[z]
	}
	return out
}
