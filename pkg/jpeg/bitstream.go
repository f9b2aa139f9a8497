package jpeg

import "errors"

// ErrMarkerEncountered signals that the entropy-coded scan ran into a
// non-stuffing marker (RSTn handling is the caller's business).
var ErrMarkerEncountered = errors.New("jpeg: marker encountered in bitstream")

// BitWriter packs codes into a byte stream MSB-first, stuffing a 0x00
// after every literal 0xFF per the marker-escaping rule.
type BitWriter struct {
	out  []byte
	buf  uint32
	bits int
}

// WriteBits emits the low n bits of val, most significant first.
func (b *BitWriter) WriteBits(val, n int) {
	b.buf = (b.buf << n) | uint32(val&((1<<n)-1))
	b.bits += n
	for b.bits >= 8 {
		b.bits -= 8
		v := byte(b.buf >> b.bits)
		b.out = append(b.out, v)
		if v == 0xFF {
			b.out = append(b.out, 0x00)
		}
	}
}

// Flush pads the final partial byte with 1 bits.
func (b *BitWriter) Flush() {
	if b.bits > 0 {
		pad := 8 - b.bits
		b.WriteBits((1<<pad)-1, pad)
	}
}

// Bytes returns the stuffed byte stream accumulated so far.
func (b *BitWriter) Bytes() []byte {
	return b.out
}

// BitReader unpacks an entropy-coded scan MSB-first, dropping the 0x00
// stuffed after each literal 0xFF and stopping at real markers.
type BitReader struct {
	data []byte
	pos  int
	buf  uint32
	bits int
}

// NewBitReader reads from data starting at the beginning of the scan.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

func (b *BitReader) fill() error {
	if b.pos >= len(b.data) {
		return &StructuralError{Rule: "truncated entropy-coded scan", Offset: b.pos}
	}
	c := b.data[b.pos]
	if c == 0xFF {
		if b.pos+1 >= len(b.data) {
			return &StructuralError{Rule: "truncated entropy-coded scan", Offset: b.pos}
		}
		next := b.data[b.pos+1]
		if next != 0x00 {
			return ErrMarkerEncountered
		}
		b.pos += 2
	} else {
		b.pos++
	}
	b.buf = (b.buf << 8) | uint32(c)
	b.bits += 8
	return nil
}

// ReadBit returns the next bit.
func (b *BitReader) ReadBit() (int, error) {
	if b.bits == 0 {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	b.bits--
	return int((b.buf >> b.bits) & 1), nil
}

// ReadBits returns the next n bits (n <= 24) as an unsigned value.
func (b *BitReader) ReadBits(n int) (int, error) {
	for b.bits < n {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	b.bits -= n
	return int((b.buf >> b.bits) & ((1 << n) - 1)), nil
}

// Align discards bits up to the next byte boundary.
func (b *BitReader) Align() {
	b.bits = 0
	b.buf = 0
}

// Pos returns the byte offset of the next unread byte.
func (b *BitReader) Pos() int {
	return b.pos
}

// SkipMarker consumes an expected in-scan marker (used for RSTn) and
// realigns the reader after it.
func (b *BitReader) SkipMarker() (byte, error) {
	b.Align()
	if b.pos+1 >= len(b.data) || b.data[b.pos] != 0xFF {
		return 0, &StructuralError{Rule: "expected marker in scan", Offset: b.pos}
	}
	m := b.data[b.pos+1]
	b.pos += 2
	return m, nil
}
