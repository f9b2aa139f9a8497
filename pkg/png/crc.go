package png

// IEEE 802.3 polynomial, reflected.
const crcPoly = 0xEDB88320

// crcTable is computed once at init and read-only afterwards.
var crcTable = makeCRCTable()

func makeCRCTable() [256]uint32 {
	var t [256]uint32
	for n := 0; n < 256; n++ {
		c := uint32(n)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = crcPoly ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		t[n] = c
	}
	return t
}

// Checksum computes the PNG CRC32 over the concatenation of parts. Chunk
// CRCs cover the 4 type bytes followed by the data bytes.
func Checksum(parts ...[]byte) uint32 {
	c := ^uint32(0)
	for _, p := range parts {
		for _, b := range p {
			c = crcTable[byte(c)^b] ^ (c >> 8)
		}
	}
	return ^c
}
