package png

// Adam7 interlacing. Each pass covers a fixed sub-lattice of the image;
// passes with zero width or height for a given image size are skipped.

type adam7Pass struct {
	xFactor, yFactor int
	xOffset, yOffset int
}

var adam7 = [7]adam7Pass{
	{8, 8, 0, 0},
	{8, 8, 4, 0},
	{4, 8, 0, 4},
	{4, 4, 2, 0},
	{2, 4, 0, 2},
	{2, 2, 1, 0},
	{1, 2, 0, 1},
}

// passSize returns the pixel dimensions of one reduced-resolution pass.
func passSize(p adam7Pass, width, height int) (int, int) {
	w := (width - p.xOffset + p.xFactor - 1) / p.xFactor
	h := (height - p.yOffset + p.yFactor - 1) / p.yFactor
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

// interlaceRGBA splits a full-resolution RGBA buffer into the 7 reduced
// pass buffers. Empty passes come back nil.
func interlaceRGBA(pixels []byte, width, height int) [7][]byte {
	var passes [7][]byte
	for i, p := range adam7 {
		pw, ph := passSize(p, width, height)
		if pw == 0 || ph == 0 {
			continue
		}
		buf := make([]byte, pw*ph*4)
		for py := 0; py < ph; py++ {
			for px := 0; px < pw; px++ {
				x := p.xOffset + px*p.xFactor
				y := p.yOffset + py*p.yFactor
				copy(buf[(py*pw+px)*4:], pixels[(y*width+x)*4:(y*width+x)*4+4])
			}
		}
		passes[i] = buf
	}
	return passes
}

// deinterlaceRGBA scatters the 7 pass buffers back into a full-resolution
// RGBA buffer per the Adam7 lattice.
func deinterlaceRGBA(passes [7][]byte, width, height int) []byte {
	pixels := make([]byte, width*height*4)
	for i, p := range adam7 {
		if passes[i] == nil {
			continue
		}
		pw, ph := passSize(p, width, height)
		for py := 0; py < ph; py++ {
			for px := 0; px < pw; px++ {
				x := p.xOffset + px*p.xFactor
				y := p.yOffset + py*p.yFactor
				copy(pixels[(y*width+x)*4:], passes[i][(py*pw+px)*4:(py*pw+px)*4+4])
			}
		}
	}
	return pixels
}
