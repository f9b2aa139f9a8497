package png

import "fmt"

// StructuralError reports a violation of PNG container structure: a bad
// signature, broken chunk ordering, or a malformed stream. Always fatal.
type StructuralError struct {
	Rule   string
	Offset int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("png: structural error at offset %d: %s", e.Offset, e.Rule)
}

// ChunkCRCError reports a CRC32 mismatch on a chunk. Fatal in strict mode;
// in lenient mode the chunk is marked invalid and skipped.
type ChunkCRCError struct {
	ChunkType string
	Offset    int
	Want      uint32
	Got       uint32
}

func (e *ChunkCRCError) Error() string {
	return fmt.Sprintf("png: crc mismatch in %q chunk at offset %d: want %08x, got %08x",
		e.ChunkType, e.Offset, e.Want, e.Got)
}

// TruncatedChunkError reports a chunk whose declared length runs past the
// end of the buffer, or a tail too short to hold a chunk at all.
type TruncatedChunkError struct {
	ChunkType string
	Offset    int
	Declared  int
	Remaining int
}

func (e *TruncatedChunkError) Error() string {
	if e.ChunkType == "" {
		return fmt.Sprintf("png: truncated chunk at offset %d: %d bytes remaining, need at least 12", e.Offset, e.Remaining)
	}
	return fmt.Sprintf("png: truncated %q chunk at offset %d: declared %d data bytes, %d remaining",
		e.ChunkType, e.Offset, e.Declared, e.Remaining)
}

// InvalidHeaderError reports an IHDR field outside its allowed range.
type InvalidHeaderError struct {
	Field string
	Value int
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("png: invalid IHDR field %s: %d", e.Field, e.Value)
}

// PixelDataSizeError reports decompressed pixel data whose length does not
// match the dimensions declared by IHDR. Raised before reconstruction.
type PixelDataSizeError struct {
	Want int
	Got  int
}

func (e *PixelDataSizeError) Error() string {
	return fmt.Sprintf("png: pixel data size mismatch: want %d bytes, got %d", e.Want, e.Got)
}

// InvalidKeywordError reports a metadata keyword violating the tEXt rules
// (1-79 Latin-1 characters, no leading/trailing space, no nulls).
type InvalidKeywordError struct {
	Keyword string
	Reason  string
}

func (e *InvalidKeywordError) Error() string {
	return fmt.Sprintf("png: invalid keyword %q: %s", e.Keyword, e.Reason)
}

// UnsupportedError reports a valid PNG feature this codec does not handle.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "png: unsupported: " + string(e)
}
