package png

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChunks_Multiple(t *testing.T) {
	var buf bytes.Buffer
	WriteChunk(&buf, "IHDR", make([]byte, 13))
	WriteChunk(&buf, "IDAT", []byte{9, 9})
	WriteChunk(&buf, "IEND", nil)

	chunks, err := ParseChunks(buf.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "IHDR", chunks[0].Type)
	assert.Equal(t, "IDAT", chunks[1].Type)
	assert.Equal(t, "IEND", chunks[2].Type)
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, 25, chunks[1].Offset) // 12 + 13
}

func TestParseChunks_DeclaredLengthExceedsBuffer(t *testing.T) {
	// Declared length 100 with only 2 data bytes present must fail before
	// any read past the buffer end.
	raw := EncodeChunk("IDAT", []byte{1, 2})
	raw[3] = 100 // corrupt the length field

	_, err := ParseChunks(raw, &ParseOptions{ValidateCRC: true, Strict: true})
	require.Error(t, err)
	var trunc *TruncatedChunkError
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, "IDAT", trunc.ChunkType)
	assert.Equal(t, 100, trunc.Declared)
}

func TestParseChunks_ShortTail(t *testing.T) {
	_, err := ParseChunks([]byte{0, 0, 0}, nil)
	var trunc *TruncatedChunkError
	require.ErrorAs(t, err, &trunc)
}

func TestParseChunks_CRCMismatch(t *testing.T) {
	raw := EncodeChunk("tEXt", []byte("k\x00v"))
	raw[len(raw)-1] ^= 0xFF // corrupt the CRC

	// Strict mode fails hard.
	_, err := ParseChunks(raw, &ParseOptions{ValidateCRC: true, Strict: true})
	var crcErr *ChunkCRCError
	require.ErrorAs(t, err, &crcErr)
	assert.Equal(t, "tEXt", crcErr.ChunkType)

	// Lenient mode records the failure and continues.
	chunks, err := ParseChunks(raw, &ParseOptions{ValidateCRC: true})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.False(t, chunks[0].Valid)
	assert.NotEmpty(t, chunks[0].Err)
}

func TestFindChunksByType(t *testing.T) {
	var buf bytes.Buffer
	WriteChunk(&buf, "IHDR", make([]byte, 13))
	WriteChunk(&buf, "IDAT", []byte{1})
	WriteChunk(&buf, "IDAT", []byte{2})
	WriteChunk(&buf, "IEND", nil)

	chunks, err := ParseChunks(buf.Bytes(), nil)
	require.NoError(t, err)
	idats := FindChunksByType(chunks, "IDAT")
	require.Len(t, idats, 2)
	assert.Equal(t, []byte{1}, idats[0].Data)
	assert.Equal(t, []byte{2}, idats[1].Data)
	assert.Empty(t, FindChunksByType(chunks, "PLTE"))
}

func TestValidateChunkStructure(t *testing.T) {
	mk := func(types ...string) []Chunk {
		out := make([]Chunk, len(types))
		for i, ty := range types {
			out[i] = Chunk{Type: ty, Valid: true}
		}
		return out
	}

	assert.NoError(t, ValidateChunkStructure(mk("IHDR", "IDAT", "IEND")))
	assert.NoError(t, ValidateChunkStructure(mk("IHDR", "tEXt", "IDAT", "IDAT", "IEND")))

	tests := []struct {
		name   string
		chunks []Chunk
	}{
		{"empty", nil},
		{"missing IHDR", mk("IDAT", "IEND")},
		{"missing IEND", mk("IHDR", "IDAT")},
		{"duplicate IHDR", mk("IHDR", "IHDR", "IDAT", "IEND")},
		{"non-contiguous IDAT", mk("IHDR", "IDAT", "tEXt", "IDAT", "IEND")},
		{"no IDAT", mk("IHDR", "IEND")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateChunkStructure(tc.chunks)
			var structural *StructuralError
			require.ErrorAs(t, err, &structural)
		})
	}
}
