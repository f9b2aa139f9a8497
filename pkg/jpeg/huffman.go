package jpeg

// HuffmanSpec is the wire form of one Huffman table: a histogram of code
// lengths plus the symbols in code order. Canonical codes are assigned
// shortest-first, in increasing numeric order within each length.
type HuffmanSpec struct {
	// Count[i] is the number of codes of length i+1 bits.
	Count [16]byte
	// Values holds the decoded symbols in codeword order.
	Values []byte
}

// Standard tables from ITU-T T.81 section K.3. The DC tables code the 12
// magnitude categories; the AC tables code run/size bytes, including the
// EOB (0x00) and ZRL (0xF0) specials.
var (
	specDCLuminance = HuffmanSpec{
		Count:  [16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		Values: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}
	specDCChrominance = HuffmanSpec{
		Count:  [16]byte{0, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
		Values: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}
	specACLuminance = HuffmanSpec{
		Count: [16]byte{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 125},
		Values: []byte{
			0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
			0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
			0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
			0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
			0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
			0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
			0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
			0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
			0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
			0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
			0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
			0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
			0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
			0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
			0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
			0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
			0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
			0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
			0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
			0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	}
	specACChrominance = HuffmanSpec{
		Count: [16]byte{0, 2, 1, 2, 4, 4, 3, 4, 7, 5, 4, 4, 0, 1, 2, 119},
		Values: []byte{
			0x00, 0x01, 0x02, 0x03, 0x11, 0x04, 0x05, 0x21,
			0x31, 0x06, 0x12, 0x41, 0x51, 0x07, 0x61, 0x71,
			0x13, 0x22, 0x32, 0x81, 0x08, 0x14, 0x42, 0x91,
			0xa1, 0xb1, 0xc1, 0x09, 0x23, 0x33, 0x52, 0xf0,
			0x15, 0x62, 0x72, 0xd1, 0x0a, 0x16, 0x24, 0x34,
			0xe1, 0x25, 0xf1, 0x17, 0x18, 0x19, 0x1a, 0x26,
			0x27, 0x28, 0x29, 0x2a, 0x35, 0x36, 0x37, 0x38,
			0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48,
			0x49, 0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58,
			0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68,
			0x69, 0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78,
			0x79, 0x7a, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
			0x88, 0x89, 0x8a, 0x92, 0x93, 0x94, 0x95, 0x96,
			0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5,
			0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4,
			0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3,
			0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2,
			0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda,
			0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9,
			0xea, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	}
)

// EncoderTable maps symbol -> (code length, code value). Index by symbol;
// the high 8 bits of each entry hold the bit length, the low 24 the code.
type EncoderTable []uint32

// BuildEncoderTable compiles a spec into the symbol-indexed form used by
// the bit writer.
func BuildEncoderTable(s HuffmanSpec) EncoderTable {
	maxValue := 0
	for _, v := range s.Values {
		if int(v) > maxValue {
			maxValue = int(v)
		}
	}
	t := make(EncoderTable, maxValue+1)
	code, k := uint32(0), 0
	for i := 0; i < len(s.Count); i++ {
		nBits := uint32(i+1) << 24
		for j := byte(0); j < s.Count[i]; j++ {
			t[s.Values[k]] = nBits | code
			code++
			k++
		}
		code <<= 1
	}
	return t
}

// Emit writes the code for symbol to bw.
func (t EncoderTable) Emit(bw *BitWriter, symbol byte) {
	v := t[symbol]
	bw.WriteBits(int(v&0xFFFFFF), int(v>>24))
}

// DecoderTable is the (bit length, code) -> symbol direction, using the
// canonical min/max code bounds per length.
type DecoderTable struct {
	minCode [17]int32 // smallest code of each length, -1 when none
	maxCode [17]int32 // largest code of each length, -1 when none
	valPtr  [17]int32 // index into Values of the first code of each length
	values  []byte
}

// BuildDecoderTable compiles a spec for scan decoding.
func BuildDecoderTable(s HuffmanSpec) (*DecoderTable, error) {
	total := 0
	for _, c := range s.Count {
		total += int(c)
	}
	if total != len(s.Values) {
		return nil, &StructuralError{Rule: "huffman table count/value length mismatch"}
	}
	t := &DecoderTable{values: s.Values}
	code := int32(0)
	k := int32(0)
	for length := 1; length <= 16; length++ {
		n := int32(s.Count[length-1])
		if n == 0 {
			t.minCode[length] = -1
			t.maxCode[length] = -1
			t.valPtr[length] = -1
		} else {
			t.valPtr[length] = k
			t.minCode[length] = code
			code += n
			k += n
			t.maxCode[length] = code - 1
		}
		code <<= 1
	}
	return t, nil
}

// Decode reads bits from br until a codeword resolves to a symbol.
func (t *DecoderTable) Decode(br *BitReader) (byte, error) {
	code := int32(0)
	for length := 1; length <= 16; length++ {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | int32(bit)
		if t.maxCode[length] >= 0 && code <= t.maxCode[length] && code >= t.minCode[length] {
			return t.values[t.valPtr[length]+code-t.minCode[length]], nil
		}
	}
	return 0, &StructuralError{Rule: "invalid huffman code in scan"}
}

// magnitudeCategory returns the JPEG size class (SSSS) of a coefficient:
// the bit length of its absolute value, 0 for zero.
func magnitudeCategory(v int32) int {
	if v < 0 {
		v = -v
	}
	n := 0
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}

// signAdjust maps a coefficient to its raw-bit representation: negative
// values are range-shifted down by one (one's-complement style).
func signAdjust(v int32, ssss int) int {
	if v < 0 {
		return int(v + (1 << ssss) - 1)
	}
	return int(v)
}

// extend is the decode-side inverse of signAdjust per T.81 F.2.2.1.
func extend(raw, ssss int) int32 {
	if ssss == 0 {
		return 0
	}
	if raw < 1<<(ssss-1) {
		return int32(raw - (1 << ssss) + 1)
	}
	return int32(raw)
}
