// Package jpeg implements a baseline JPEG encoder and decoder working
// over in-memory byte buffers. Encoded output is sequential DCT with
// Huffman entropy coding; decoded pixels are normalized to interleaved
// 8-bit RGBA.
package jpeg

import (
	"github.com/jpfielding/raster.go/pkg/raster"
)

// Color spaces accepted by the encoder.
const (
	ColorSpaceYCbCr     = "ycbcr"
	ColorSpaceGrayscale = "grayscale"
)

// DefaultQuality is used when Options.Quality is zero.
const DefaultQuality = 85

// Options parameterizes an encode.
type Options struct {
	// Quality is the IJG quality factor 1-100; 0 selects DefaultQuality.
	Quality int
	// ColorSpace is "ycbcr" (default) or "grayscale".
	ColorSpace string
	// Convert overrides the RGB->YCbCr conversion parameters.
	Convert *ConvertOptions
}

// Encode compresses an interleaved RGBA buffer to a baseline JFIF stream.
//
// Pipeline: validate params -> scale quantization tables -> color convert
// to planes -> markers (SOI/APP0/DQT/SOF0/DHT/SOS) -> per-block level
// shift, forward DCT, quantize, zigzag, Huffman -> EOI.
func Encode(pixels []byte, width, height int, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = &Options{}
	}
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	colorSpace := opts.ColorSpace
	if colorSpace == "" {
		colorSpace = ColorSpaceYCbCr
	}
	if colorSpace != ColorSpaceYCbCr && colorSpace != ColorSpaceGrayscale {
		return nil, UnsupportedError("color space " + colorSpace)
	}
	if err := raster.CheckRGBA("jpeg encode", pixels, width, height); err != nil {
		return nil, err
	}
	if width > 0xFFFF || height > 0xFFFF {
		return nil, &StructuralError{Rule: "dimensions exceed 65535"}
	}

	lumaQuant, err := ScaleQuantTable(&baseLuminanceQuant, quality)
	if err != nil {
		return nil, err
	}
	chromaQuant, err := ScaleQuantTable(&baseChrominanceQuant, quality)
	if err != nil {
		return nil, err
	}

	var planes [][]byte
	if colorSpace == ColorSpaceGrayscale {
		planes = [][]byte{rgbaToGrayPlane(pixels, width, height, opts.Convert)}
	} else {
		planes = rgbaToYCbCrPlanes(pixels, width, height, opts.Convert)
	}

	out := make([]byte, 0, width*height/2+1024)
	out = writeSegment(out, MarkerSOI, nil)
	out = writeSegment(out, MarkerAPP0, jfifPayload())
	out = writeSegment(out, MarkerDQT, dqtPayload(0, lumaQuant))
	if len(planes) == 3 {
		out = writeSegment(out, MarkerDQT, dqtPayload(1, chromaQuant))
	}
	out = writeSegment(out, MarkerSOF0, sofPayload(width, height, len(planes)))
	out = writeSegment(out, MarkerDHT, dhtPayload(0, 0, specDCLuminance))
	out = writeSegment(out, MarkerDHT, dhtPayload(1, 0, specACLuminance))
	if len(planes) == 3 {
		out = writeSegment(out, MarkerDHT, dhtPayload(0, 1, specDCChrominance))
		out = writeSegment(out, MarkerDHT, dhtPayload(1, 1, specACChrominance))
	}
	out = writeSegment(out, MarkerSOS, sosPayload(len(planes)))

	scan := encodeScan(planes, width, height, lumaQuant, chromaQuant)
	out = append(out, scan...)
	out = writeSegment(out, MarkerEOI, nil)
	return out, nil
}

func jfifPayload() []byte {
	return []byte{
		'J', 'F', 'I', 'F', 0,
		1, 1, // version 1.1
		0,    // density unit: none
		0, 1, // x density
		0, 1, // y density
		0, 0, // no thumbnail
	}
}

// dqtPayload serializes one 8-bit-precision table in zigzag order.
func dqtPayload(id int, table *[64]int) []byte {
	out := make([]byte, 65)
	out[0] = byte(id) // Pq=0 (8-bit), Tq=id
	for z := 0; z < 64; z++ {
		out[1+z] = byte(table[unzig[z]])
	}
	return out
}

func sofPayload(width, height, components int) []byte {
	out := []byte{
		8, // precision
		byte(height >> 8), byte(height),
		byte(width >> 8), byte(width),
		byte(components),
	}
	for c := 0; c < components; c++ {
		quantID := byte(0)
		if c > 0 {
			quantID = 1
		}
		out = append(out, byte(c+1), 0x11, quantID) // 4:4:4 sampling
	}
	return out
}

func dhtPayload(class, id int, spec HuffmanSpec) []byte {
	out := make([]byte, 0, 17+len(spec.Values))
	out = append(out, byte(class<<4|id))
	out = append(out, spec.Count[:]...)
	out = append(out, spec.Values...)
	return out
}

func sosPayload(components int) []byte {
	out := []byte{byte(components)}
	for c := 0; c < components; c++ {
		tables := byte(0)
		if c > 0 {
			tables = 0x11
		}
		out = append(out, byte(c+1), tables)
	}
	out = append(out, 0, 63, 0) // Ss, Se, Ah/Al
	return out
}

// encodeScan produces the interleaved entropy-coded scan. With 4:4:4
// sampling every MCU holds exactly one block per component.
func encodeScan(planes [][]byte, width, height int, lumaQuant, chromaQuant *[64]int) []byte {
	grid := CalculateMCUGrid(width, height)
	dcLum := BuildEncoderTable(specDCLuminance)
	acLum := BuildEncoderTable(specACLuminance)
	dcChrom := BuildEncoderTable(specDCChrominance)
	acChrom := BuildEncoderTable(specACChrominance)

	bw := &BitWriter{}
	prevDC := make([]int32, len(planes))
	for by := 0; by < grid.BlocksY; by++ {
		for bx := 0; bx < grid.BlocksX; bx++ {
			for c, plane := range planes {
				quant := lumaQuant
				dcTab, acTab := dcLum, acLum
				if c > 0 {
					quant = chromaQuant
					dcTab, acTab = dcChrom, acChrom
				}
				block := ExtractBlock(plane, width, height, bx, by)
				LevelShift(&block)
				freq := ForwardDCT(&block)
				quantized := QuantizeBlock(&freq, quant)
				seq := ZigzagFlatten(&quantized)
				prevDC[c] = encodeBlock(bw, &seq, prevDC[c], dcTab, acTab)
			}
		}
	}
	bw.Flush()
	return bw.Bytes()
}

// encodeBlock emits one zigzag-ordered coefficient block: delta-coded DC,
// then run-length/size coded AC with ZRL and EOB specials. Returns the DC
// value for the next block's prediction.
func encodeBlock(bw *BitWriter, seq *[64]int32, prevDC int32, dcTab, acTab EncoderTable) int32 {
	dc := seq[0]
	diff := dc - prevDC
	ssss := magnitudeCategory(diff)
	dcTab.Emit(bw, byte(ssss))
	if ssss > 0 {
		bw.WriteBits(signAdjust(diff, ssss), ssss)
	}

	run := 0
	for k := 1; k < 64; k++ {
		v := seq[k]
		if v == 0 {
			run++
			continue
		}
		for run > 15 {
			acTab.Emit(bw, 0xF0) // ZRL: sixteen zeros
			run -= 16
		}
		size := magnitudeCategory(v)
		acTab.Emit(bw, byte(run<<4|size))
		bw.WriteBits(signAdjust(v, size), size)
		run = 0
	}
	if run > 0 {
		acTab.Emit(bw, 0x00) // EOB
	}
	return dc
}
