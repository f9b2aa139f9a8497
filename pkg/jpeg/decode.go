package jpeg

import (
	"bytes"
	"errors"
)

// JFIF is the decoded APP0 identification payload.
type JFIF struct {
	Major    int
	Minor    int
	Units    int
	DensityX int
	DensityY int
}

// Metadata describes the stream characteristics a decode observed.
type Metadata struct {
	Progressive bool
	Precision   int
	JFIF        *JFIF
	// Exif holds the raw APP1 Exif payload (after the identifier), nil
	// when absent. The TIFF structure inside is not interpreted here.
	Exif []byte
}

// Image is the result of a decode.
type Image struct {
	Width    int
	Height   int
	Pixels   []byte // interleaved RGBA
	Metadata Metadata
}

// component is one SOF channel declaration.
type component struct {
	id      int
	h, v    int // sampling factors
	quantID int
	dcID    int
	acID    int
}

// Decode decompresses a baseline sequential JPEG stream. Progressive
// streams are detected (and flagged in metadata) but not decoded.
func Decode(data []byte) (*Image, error) {
	segs, err := ParseSegments(data)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		quant: map[int]*[64]int{},
		huff:  map[int]*DecoderTable{},
	}
	for _, seg := range segs {
		switch seg.Marker {
		case MarkerAPP0:
			d.parseAPP0(seg.Data)
		case MarkerAPP1:
			d.parseAPP1(seg.Data)
		case MarkerDQT:
			if err := d.parseDQT(seg.Data, seg.Offset); err != nil {
				return nil, err
			}
		case MarkerDHT:
			if err := d.parseDHT(seg.Data, seg.Offset); err != nil {
				return nil, err
			}
		case MarkerDRI:
			if len(seg.Data) != 2 {
				return nil, &StructuralError{Rule: "DRI payload must be 2 bytes", Offset: seg.Offset}
			}
			d.restartInterval = int(seg.Data[0])<<8 | int(seg.Data[1])
		case MarkerSOF0, MarkerSOF1:
			if err := d.parseSOF(seg.Data, seg.Offset); err != nil {
				return nil, err
			}
		case MarkerSOF2:
			d.meta.Progressive = true
			if err := d.parseSOF(seg.Data, seg.Offset); err != nil {
				return nil, err
			}
		case MarkerSOS:
			if err := d.parseSOS(seg.Data, seg.Offset); err != nil {
				return nil, err
			}
			d.scanOffset = seg.ScanOffset
		}
	}
	if d.width == 0 || d.height == 0 {
		return nil, &StructuralError{Rule: "missing SOF frame header"}
	}
	if d.meta.Progressive {
		return nil, UnsupportedError("progressive JPEG")
	}
	if d.scanOffset == 0 {
		return nil, &StructuralError{Rule: "missing SOS scan"}
	}

	planes, err := d.decodeScan(data[d.scanOffset:])
	if err != nil {
		return nil, err
	}

	var pixels []byte
	switch len(planes) {
	case 1:
		pixels = grayPlaneToRGBA(planes[0], d.width, d.height)
	case 3:
		pixels = ycbcrPlanesToRGBA(planes[0], planes[1], planes[2], d.width, d.height, nil)
	default:
		return nil, UnsupportedError("component count")
	}

	return &Image{
		Width:    d.width,
		Height:   d.height,
		Pixels:   pixels,
		Metadata: d.meta,
	}, nil
}

type decoder struct {
	width, height   int
	comps           []component
	quant           map[int]*[64]int
	huff            map[int]*DecoderTable // key class<<4|id
	restartInterval int
	scanOffset      int
	meta            Metadata
}

func (d *decoder) parseAPP0(data []byte) {
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("JFIF\x00")) {
		d.meta.JFIF = &JFIF{
			Major:    int(data[5]),
			Minor:    int(data[6]),
			Units:    int(data[7]),
			DensityX: int(data[8])<<8 | int(data[9]),
			DensityY: int(data[10])<<8 | int(data[11]),
		}
	}
}

func (d *decoder) parseAPP1(data []byte) {
	if bytes.HasPrefix(data, []byte("Exif\x00\x00")) {
		d.meta.Exif = data[6:]
	}
}

func (d *decoder) parseDQT(data []byte, off int) error {
	for len(data) > 0 {
		precision := int(data[0]) >> 4
		id := int(data[0]) & 0x0F
		entryBytes := 64
		if precision == 1 {
			entryBytes = 128
		}
		if len(data) < 1+entryBytes {
			return &StructuralError{Rule: "truncated DQT payload", Offset: off}
		}
		var table [64]int
		for z := 0; z < 64; z++ {
			var v int
			if precision == 1 {
				v = int(data[1+z*2])<<8 | int(data[2+z*2])
			} else {
				v = int(data[1+z])
			}
			table[unzig[z]] = v
		}
		d.quant[id] = &table
		data = data[1+entryBytes:]
	}
	return nil
}

func (d *decoder) parseDHT(data []byte, off int) error {
	for len(data) > 0 {
		if len(data) < 17 {
			return &StructuralError{Rule: "truncated DHT payload", Offset: off}
		}
		key := int(data[0])
		var spec HuffmanSpec
		total := 0
		for i := 0; i < 16; i++ {
			spec.Count[i] = data[1+i]
			total += int(spec.Count[i])
		}
		if len(data) < 17+total {
			return &StructuralError{Rule: "truncated DHT payload", Offset: off}
		}
		spec.Values = data[17 : 17+total]
		table, err := BuildDecoderTable(spec)
		if err != nil {
			return err
		}
		d.huff[key] = table
		data = data[17+total:]
	}
	return nil
}

func (d *decoder) parseSOF(data []byte, off int) error {
	if len(data) < 6 {
		return &StructuralError{Rule: "truncated SOF payload", Offset: off}
	}
	d.meta.Precision = int(data[0])
	if d.meta.Precision != 8 {
		return UnsupportedError("sample precision other than 8 bits")
	}
	d.height = int(data[1])<<8 | int(data[2])
	d.width = int(data[3])<<8 | int(data[4])
	if d.width == 0 || d.height == 0 {
		return &StructuralError{Rule: "zero frame dimension", Offset: off}
	}
	n := int(data[5])
	if n != 1 && n != 3 {
		return UnsupportedError("component count other than 1 or 3")
	}
	if len(data) < 6+3*n {
		return &StructuralError{Rule: "truncated SOF payload", Offset: off}
	}
	d.comps = make([]component, n)
	for i := 0; i < n; i++ {
		c := &d.comps[i]
		c.id = int(data[6+i*3])
		c.h = int(data[7+i*3]) >> 4
		c.v = int(data[7+i*3]) & 0x0F
		c.quantID = int(data[8+i*3])
		if c.h < 1 || c.h > 2 || c.v < 1 || c.v > 2 {
			return UnsupportedError("sampling factors above 2")
		}
	}
	return nil
}

func (d *decoder) parseSOS(data []byte, off int) error {
	if len(data) < 1 {
		return &StructuralError{Rule: "truncated SOS payload", Offset: off}
	}
	n := int(data[0])
	if n != len(d.comps) {
		return &StructuralError{Rule: "SOS component count mismatch", Offset: off}
	}
	if len(data) < 1+2*n+3 {
		return &StructuralError{Rule: "truncated SOS payload", Offset: off}
	}
	for i := 0; i < n; i++ {
		id := int(data[1+i*2])
		sel := int(data[2+i*2])
		found := false
		for j := range d.comps {
			if d.comps[j].id == id {
				d.comps[j].dcID = sel >> 4
				d.comps[j].acID = sel & 0x0F
				found = true
			}
		}
		if !found {
			return &StructuralError{Rule: "SOS references unknown component", Offset: off}
		}
	}
	return nil
}

// decodeScan entropy-decodes the interleaved scan into one upsampled
// full-resolution plane per component.
func (d *decoder) decodeScan(scan []byte) ([][]byte, error) {
	maxH, maxV := 1, 1
	for _, c := range d.comps {
		maxH = max(maxH, c.h)
		maxV = max(maxV, c.v)
	}
	mcusX := (d.width + 8*maxH - 1) / (8 * maxH)
	mcusY := (d.height + 8*maxV - 1) / (8 * maxV)

	// Per-component padded planes covering the full MCU grid.
	planeW := make([]int, len(d.comps))
	planeH := make([]int, len(d.comps))
	planes := make([][]byte, len(d.comps))
	for i, c := range d.comps {
		planeW[i] = mcusX * c.h * 8
		planeH[i] = mcusY * c.v * 8
		planes[i] = make([]byte, planeW[i]*planeH[i])
	}

	br := NewBitReader(scan)
	prevDC := make([]int32, len(d.comps))
	mcu := 0
	rstNext := byte(MarkerRST0)
	for my := 0; my < mcusY; my++ {
		for mx := 0; mx < mcusX; mx++ {
			if d.restartInterval > 0 && mcu > 0 && mcu%d.restartInterval == 0 {
				m, err := br.SkipMarker()
				if err != nil {
					return nil, err
				}
				if m != rstNext {
					return nil, &StructuralError{Rule: "restart marker out of sequence", Offset: br.Pos()}
				}
				rstNext = MarkerRST0 + (rstNext-MarkerRST0+1)%8
				for i := range prevDC {
					prevDC[i] = 0
				}
			}
			for i, c := range d.comps {
				quant, ok := d.quant[c.quantID]
				if !ok {
					return nil, &StructuralError{Rule: "missing quantization table"}
				}
				dcTab := d.huff[0<<4|c.dcID]
				acTab := d.huff[1<<4|c.acID]
				if dcTab == nil || acTab == nil {
					return nil, &StructuralError{Rule: "missing huffman table"}
				}
				for by := 0; by < c.v; by++ {
					for bx := 0; bx < c.h; bx++ {
						seq, err := decodeBlock(br, dcTab, acTab, prevDC[i])
						if err != nil {
							return nil, err
						}
						prevDC[i] = seq[0]
						coeffs := ZigzagExpand(&seq)
						freq := DequantizeBlock(&coeffs, quant)
						spatial := InverseDCT(&freq)
						LevelUnshift(&spatial)
						PlaceBlock(planes[i], planeW[i], planeH[i], mx*c.h+bx, my*c.v+by, &spatial)
					}
				}
			}
			mcu++
		}
	}

	// Crop and upsample each component to full resolution.
	out := make([][]byte, len(d.comps))
	for i, c := range d.comps {
		cw := (d.width*c.h + maxH - 1) / maxH
		ch := (d.height*c.v + maxV - 1) / maxV
		out[i] = upsamplePlane(planes[i], planeW[i], cw, ch, d.width, d.height, maxH/c.h, maxV/c.v)
	}
	return out, nil
}

// upsamplePlane crops a padded component plane to cw x ch and expands it
// to full resolution by sample replication.
func upsamplePlane(plane []byte, stride, cw, ch, width, height, fx, fy int) []byte {
	out := make([]byte, width*height)
	for y := 0; y < height; y++ {
		sy := min(y/fy, ch-1)
		for x := 0; x < width; x++ {
			sx := min(x/fx, cw-1)
			out[y*width+x] = plane[sy*stride+sx]
		}
	}
	return out
}

// decodeBlock reads one block's worth of entropy-coded coefficients in
// zigzag order, applying the DC prediction.
func decodeBlock(br *BitReader, dcTab, acTab *DecoderTable, prevDC int32) ([64]int32, error) {
	var seq [64]int32
	ssss, err := dcTab.Decode(br)
	if err != nil {
		return seq, err
	}
	var diff int32
	if ssss > 0 {
		raw, err := br.ReadBits(int(ssss))
		if err != nil {
			return seq, err
		}
		diff = extend(raw, int(ssss))
	}
	seq[0] = prevDC + diff

	for k := 1; k < 64; {
		sym, err := acTab.Decode(br)
		if err != nil {
			if errors.Is(err, ErrMarkerEncountered) {
				return seq, &StructuralError{Rule: "marker inside coefficient block", Offset: br.Pos()}
			}
			return seq, err
		}
		run := int(sym >> 4)
		size := int(sym & 0x0F)
		if size == 0 {
			if sym == 0x00 { // EOB
				break
			}
			if sym == 0xF0 { // ZRL
				k += 16
				continue
			}
			return seq, &StructuralError{Rule: "invalid AC run/size symbol", Offset: br.Pos()}
		}
		k += run
		if k > 63 {
			return seq, &StructuralError{Rule: "AC coefficient index out of range", Offset: br.Pos()}
		}
		raw, err := br.ReadBits(size)
		if err != nil {
			return seq, err
		}
		seq[k] = extend(raw, size)
		k++
	}
	return seq, nil
}
