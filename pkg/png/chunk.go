package png

import (
	"bytes"
	"encoding/binary"
)

// Signature is the 8-byte PNG file header.
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Chunk is one typed, length-prefixed, CRC-checked block of a PNG stream.
// Offset is relative to the start of the buffer handed to ParseChunks.
type Chunk struct {
	Type   string
	Data   []byte
	Length uint32
	CRC    uint32
	Offset int
	Valid  bool
	Err    string
}

// ParseOptions controls chunk-level validation.
type ParseOptions struct {
	// ValidateCRC recomputes each chunk CRC against the stored value.
	ValidateCRC bool
	// Strict turns a CRC mismatch into a fatal ChunkCRCError instead of
	// marking the chunk invalid and continuing.
	Strict bool
}

// ParseChunks reads chunks back to back until the buffer is exhausted.
// The buffer must start at the first chunk, after the 8-byte signature.
func ParseChunks(data []byte, opts *ParseOptions) ([]Chunk, error) {
	if opts == nil {
		opts = &ParseOptions{ValidateCRC: true}
	}
	var chunks []Chunk
	off := 0
	for off < len(data) {
		remaining := len(data) - off
		if remaining < 12 {
			return nil, &TruncatedChunkError{Offset: off, Remaining: remaining}
		}
		length := binary.BigEndian.Uint32(data[off:])
		typ := string(data[off+4 : off+8])
		if int(length) > remaining-12 {
			return nil, &TruncatedChunkError{
				ChunkType: typ,
				Offset:    off,
				Declared:  int(length),
				Remaining: remaining - 12,
			}
		}
		payload := data[off+8 : off+8+int(length)]
		crc := binary.BigEndian.Uint32(data[off+8+int(length):])

		c := Chunk{
			Type:   typ,
			Data:   payload,
			Length: length,
			CRC:    crc,
			Offset: off,
			Valid:  true,
		}
		if opts.ValidateCRC {
			if want := Checksum(data[off+4:off+8], payload); want != crc {
				if opts.Strict {
					return nil, &ChunkCRCError{ChunkType: typ, Offset: off, Want: want, Got: crc}
				}
				c.Valid = false
				c.Err = (&ChunkCRCError{ChunkType: typ, Offset: off, Want: want, Got: crc}).Error()
			}
		}
		chunks = append(chunks, c)
		off += 12 + int(length)
	}
	return chunks, nil
}

// WriteChunk appends one chunk (length, type, data, crc) to buf.
func WriteChunk(buf *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	buf.Write(hdr[:])
	buf.Write(data)
	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], Checksum(hdr[4:], data))
	buf.Write(crc[:])
}

// EncodeChunk returns one serialized chunk as a fresh byte slice.
func EncodeChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	WriteChunk(&buf, typ, data)
	return buf.Bytes()
}

// FindChunksByType returns all chunks with the given type, in stream order.
func FindChunksByType(chunks []Chunk, typ string) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// ValidateChunkStructure enforces the ordering rules of the PNG spec:
// IHDR first, IEND last, exactly one of each, at least one IDAT, and all
// IDAT chunks contiguous.
func ValidateChunkStructure(chunks []Chunk) error {
	if len(chunks) == 0 {
		return &StructuralError{Rule: "no chunks present"}
	}
	if chunks[0].Type != "IHDR" {
		return &StructuralError{Rule: "first chunk must be IHDR, got " + chunks[0].Type, Offset: chunks[0].Offset}
	}
	last := chunks[len(chunks)-1]
	if last.Type != "IEND" {
		return &StructuralError{Rule: "last chunk must be IEND, got " + last.Type, Offset: last.Offset}
	}
	var ihdr, iend, idat int
	idatDone := false
	for _, c := range chunks {
		switch c.Type {
		case "IHDR":
			ihdr++
		case "IEND":
			iend++
		case "IDAT":
			if idatDone {
				return &StructuralError{Rule: "IDAT chunks must be contiguous", Offset: c.Offset}
			}
			idat++
		}
		if c.Type != "IDAT" && idat > 0 {
			idatDone = true
		}
	}
	if ihdr != 1 {
		return &StructuralError{Rule: "exactly one IHDR required"}
	}
	if iend != 1 {
		return &StructuralError{Rule: "exactly one IEND required"}
	}
	if idat == 0 {
		return &StructuralError{Rule: "no IDAT chunk present"}
	}
	return nil
}
