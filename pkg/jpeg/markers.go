package jpeg

import "encoding/binary"

// Marker bytes, as per ITU-T T.81. Markers appear in the stream as 0xFF
// followed by the marker byte.
const (
	MarkerSOF0 = 0xC0 // baseline sequential DCT
	MarkerSOF1 = 0xC1 // extended sequential DCT
	MarkerSOF2 = 0xC2 // progressive DCT
	MarkerDHT  = 0xC4
	MarkerRST0 = 0xD0
	MarkerRST7 = 0xD7
	MarkerSOI  = 0xD8
	MarkerEOI  = 0xD9
	MarkerSOS  = 0xDA
	MarkerDQT  = 0xDB
	MarkerDRI  = 0xDD
	MarkerAPP0 = 0xE0
	MarkerAPP1 = 0xE1
	MarkerCOM  = 0xFE
)

// Segment is one marker-delimited unit of the stream. Data excludes the
// two length bytes; ScanOffset points at the entropy-coded bytes following
// an SOS header.
type Segment struct {
	Marker     byte
	Offset     int
	Data       []byte
	ScanOffset int
}

func standalone(marker byte) bool {
	return marker == MarkerSOI || marker == MarkerEOI ||
		(marker >= MarkerRST0 && marker <= MarkerRST7) ||
		marker == 0x01 // TEM
}

// ParseSegments walks the marker structure up to and including the first
// SOS (the entropy-coded scan is not segment-structured, so parsing stops
// there) or EOI, whichever comes first.
func ParseSegments(data []byte) ([]Segment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != MarkerSOI {
		return nil, &StructuralError{Rule: "missing SOI marker"}
	}
	segs := []Segment{{Marker: MarkerSOI, Offset: 0}}
	off := 2
	for off < len(data) {
		if data[off] != 0xFF {
			return nil, &StructuralError{Rule: "expected marker prefix 0xFF", Offset: off}
		}
		// fill bytes before a marker are legal
		for off < len(data) && data[off] == 0xFF {
			off++
		}
		if off >= len(data) {
			return nil, &StructuralError{Rule: "truncated marker", Offset: off}
		}
		marker := data[off]
		markerOff := off - 1
		off++
		if standalone(marker) {
			segs = append(segs, Segment{Marker: marker, Offset: markerOff})
			if marker == MarkerEOI {
				return segs, nil
			}
			continue
		}
		if off+2 > len(data) {
			return nil, &StructuralError{Rule: "truncated segment length", Offset: off}
		}
		length := int(binary.BigEndian.Uint16(data[off:]))
		if length < 2 || off+length > len(data) {
			return nil, &StructuralError{Rule: "segment length exceeds buffer", Offset: off}
		}
		seg := Segment{Marker: marker, Offset: markerOff, Data: data[off+2 : off+length]}
		off += length
		if marker == MarkerSOS {
			seg.ScanOffset = off
			segs = append(segs, seg)
			return segs, nil
		}
		segs = append(segs, seg)
	}
	return nil, &StructuralError{Rule: "missing EOI marker", Offset: len(data)}
}

// writeSegment appends a marker and a length-prefixed payload to dst.
func writeSegment(dst []byte, marker byte, payload []byte) []byte {
	dst = append(dst, 0xFF, marker)
	if payload != nil || !standalone(marker) {
		length := len(payload) + 2
		dst = append(dst, byte(length>>8), byte(length))
		dst = append(dst, payload...)
	}
	return dst
}
