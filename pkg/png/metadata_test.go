package png

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKeyword(t *testing.T) {
	assert.NoError(t, validateKeyword("Title"))
	assert.NoError(t, validateKeyword("Software Name"))

	tests := []struct {
		name string
		kw   string
	}{
		{"empty", ""},
		{"too long", string(make([]byte, 80))},
		{"leading space", " Title"},
		{"trailing space", "Title "},
		{"embedded null", "Ti\x00tle"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateKeyword(tc.kw)
			var kwErr *InvalidKeywordError
			require.ErrorAs(t, err, &kwErr)
		})
	}
}

func TestMetadata_TextRoundTrip(t *testing.T) {
	data, err := encodeTextChunk("Author", "jp")
	require.NoError(t, err)

	var md Metadata
	require.NoError(t, decodeMetadataChunk(Chunk{Type: "tEXt", Data: data}, &md))
	assert.Equal(t, "jp", md.Text["Author"])
}

func TestMetadata_ZTextRoundTrip(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "compressible text "
	}
	data, err := encodeZTextChunk("Description", long, -1)
	require.NoError(t, err)
	assert.Less(t, len(data), len(long), "zTXt should compress")

	var md Metadata
	require.NoError(t, decodeMetadataChunk(Chunk{Type: "zTXt", Data: data}, &md))
	assert.Equal(t, long, md.Text["Description"])
}

func TestMetadata_ITextRoundTrip(t *testing.T) {
	it := InternationalText{
		Keyword:           "Comment",
		LanguageTag:       "en-US",
		TranslatedKeyword: "Kommentar",
		Text:              "hello über world",
		Compressed:        true,
	}
	data, err := encodeITextChunk(it, -1)
	require.NoError(t, err)

	var md Metadata
	require.NoError(t, decodeMetadataChunk(Chunk{Type: "iTXt", Data: data}, &md))
	require.Len(t, md.International, 1)
	assert.Equal(t, it, md.International[0])
}

func TestMetadata_TimeRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)
	var md Metadata
	require.NoError(t, decodeMetadataChunk(Chunk{Type: "tIME", Data: encodeTimeChunk(ts)}, &md))
	require.NotNil(t, md.Time)
	assert.True(t, ts.Equal(*md.Time))
}

func TestMetadata_PhysicalDPI(t *testing.T) {
	// 2835 pixels per meter is 72 DPI.
	var md Metadata
	data := []byte{0, 0, 0x0B, 0x13, 0, 0, 0x0B, 0x13, 1}
	require.NoError(t, decodeMetadataChunk(Chunk{Type: "pHYs", Data: data}, &md))
	require.NotNil(t, md.Physical)
	dpiX, dpiY := md.Physical.DPI()
	assert.InDelta(t, 72.0, dpiX, 0.01)
	assert.InDelta(t, 72.0, dpiY, 0.01)

	// Unknown unit yields no DPI.
	md.Physical.Unit = 0
	dpiX, _ = md.Physical.DPI()
	assert.Zero(t, dpiX)
}

func TestMetadata_GammaAndSRGB(t *testing.T) {
	var md Metadata
	require.NoError(t, decodeMetadataChunk(Chunk{Type: "gAMA", Data: []byte{0, 0, 0xB1, 0x8F}}, &md))
	assert.InDelta(t, 0.45455, md.Gamma, 0.00001)

	require.NoError(t, decodeMetadataChunk(Chunk{Type: "sRGB", Data: []byte{1}}, &md))
	require.NotNil(t, md.SRGBIntent)
	assert.Equal(t, byte(1), *md.SRGBIntent)

	err := decodeMetadataChunk(Chunk{Type: "sRGB", Data: []byte{9}}, &md)
	assert.Error(t, err)
}

func TestExtractMetadata_SkipsMalformed(t *testing.T) {
	chunks := []Chunk{
		{Type: "IHDR", Valid: true},
		{Type: "tIME", Data: []byte{1, 2}, Valid: true},              // malformed, skipped
		{Type: "tEXt", Data: []byte("k\x00v"), Valid: true},          // fine
		{Type: "gAMA", Data: []byte{0, 0, 0xB1, 0x8F}, Valid: false}, // bad crc, skipped
		{Type: "IEND", Valid: true},
	}
	md := extractMetadata(chunks)
	assert.Nil(t, md.Time)
	assert.Zero(t, md.Gamma)
	assert.Equal(t, "v", md.Text["k"])
}

func TestEncodeMetadataChunks_DropsInvalid(t *testing.T) {
	md := &Metadata{
		Text: map[string]string{
			"Good":     "kept",
			" Leading": "dropped",
		},
	}
	var buf []Chunk
	out := encodeAndReparse(t, md)
	buf = FindChunksByType(out, "tEXt")
	require.Len(t, buf, 1)
	assert.Equal(t, []byte("Good\x00kept"), buf[0].Data)
}

func TestEncodeMetadataChunks_CompressesLongText(t *testing.T) {
	// Text entries past the threshold are stored as zTXt, short ones as
	// tEXt; both decode back to the same map.
	long := strings.Repeat("still going ", 64)
	md := &Metadata{Text: map[string]string{
		"Long":  long,
		"Short": "kept inline",
	}}
	chunks := encodeAndReparse(t, md)
	require.Len(t, FindChunksByType(chunks, "zTXt"), 1)
	require.Len(t, FindChunksByType(chunks, "tEXt"), 1)

	var got Metadata
	for _, c := range chunks {
		require.NoError(t, decodeMetadataChunk(c, &got))
	}
	assert.Equal(t, long, got.Text["Long"])
	assert.Equal(t, "kept inline", got.Text["Short"])
}

func encodeAndReparse(t *testing.T, md *Metadata) []Chunk {
	t.Helper()
	var buf bytes.Buffer
	encodeMetadataChunks(&buf, md, -1)
	chunks, err := ParseChunks(buf.Bytes(), nil)
	require.NoError(t, err)
	return chunks
}
