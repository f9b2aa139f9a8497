package png

// Filter types, as per the PNG spec.
const (
	FilterNone    = 0
	FilterSub     = 1
	FilterUp      = 2
	FilterAverage = 3
	FilterPaeth   = 4
	nFilter       = 5
)

// paeth returns the Paeth predictor: whichever of left, up, upleft is
// closest to left+up-upleft, ties preferring left, then up, then upleft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ReverseFilter reconstructs cur in place. prev is the already-reconstructed
// previous scanline (all zeros for the first row); bpp is the filter unit in
// bytes. Filters 1, 3 and 4 depend on earlier bytes of the same row, so
// reconstruction is strictly left to right.
func ReverseFilter(filterType byte, cur, prev []byte, bpp int) error {
	switch filterType {
	case FilterNone:
	case FilterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case FilterUp:
		for i := range cur {
			cur[i] += prev[i]
		}
	case FilterAverage:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += byte((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case FilterPaeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += paeth(0, prev[i], 0)
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += paeth(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return &StructuralError{Rule: "bad filter type"}
	}
	return nil
}

// ApplyFilter returns the filtered form of cur, leaving cur untouched.
func ApplyFilter(filterType byte, cur, prev []byte, bpp int) ([]byte, error) {
	out := make([]byte, len(cur))
	switch filterType {
	case FilterNone:
		copy(out, cur)
	case FilterSub:
		for i := 0; i < bpp && i < len(cur); i++ {
			out[i] = cur[i]
		}
		for i := bpp; i < len(cur); i++ {
			out[i] = cur[i] - cur[i-bpp]
		}
	case FilterUp:
		for i := range cur {
			out[i] = cur[i] - prev[i]
		}
	case FilterAverage:
		for i := 0; i < bpp && i < len(cur); i++ {
			out[i] = cur[i] - prev[i]/2
		}
		for i := bpp; i < len(cur); i++ {
			out[i] = cur[i] - byte((int(cur[i-bpp])+int(prev[i]))/2)
		}
	case FilterPaeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			out[i] = cur[i] - paeth(0, prev[i], 0)
		}
		for i := bpp; i < len(cur); i++ {
			out[i] = cur[i] - paeth(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return nil, &StructuralError{Rule: "bad filter type"}
	}
	return out, nil
}

// chooseFilter picks the filter minimizing the sum of absolute differences
// of the filtered output, the usual heuristic for DEFLATE-friendliness.
func chooseFilter(cur, prev []byte, bpp int) (byte, []byte) {
	bestType := byte(FilterNone)
	var bestLine []byte
	bestScore := -1
	for ft := byte(0); ft < nFilter; ft++ {
		line, _ := ApplyFilter(ft, cur, prev, bpp)
		score := 0
		for _, b := range line {
			score += abs(int(int8(b)))
		}
		if bestScore < 0 || score < bestScore {
			bestScore = score
			bestType = ft
			bestLine = line
		}
	}
	return bestType, bestLine
}
