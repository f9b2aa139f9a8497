package png

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/klauspost/compress/zlib"
)

// Metadata aggregates the ancillary chunks this codec understands. All of
// it is advisory: a malformed ancillary chunk is skipped with a warning and
// never aborts a decode.
type Metadata struct {
	// Text holds tEXt and zTXt entries keyed by keyword.
	Text map[string]string
	// International holds iTXt entries.
	International []InternationalText
	// Time is the tIME last-modification stamp.
	Time *time.Time
	// Physical is the pHYs pixel-density record.
	Physical *PhysicalDims
	// Gamma is the gAMA value (stored value / 100000), 0 when absent.
	Gamma float64
	// SRGBIntent is the sRGB rendering intent (0-3), nil when absent.
	SRGBIntent *byte
	// SignificantBits is the raw sBIT payload.
	SignificantBits []byte
	// Chromaticity is the raw cHRM payload (8 uint32 BE values / 100000).
	Chromaticity []uint32
	// ICCProfile is the decompressed iCCP profile.
	ICCProfile *ICCProfile
}

// InternationalText is one iTXt entry.
type InternationalText struct {
	Keyword           string
	LanguageTag       string
	TranslatedKeyword string
	Text              string
	Compressed        bool
}

// PhysicalDims is the decoded pHYs chunk.
type PhysicalDims struct {
	PPUX uint32
	PPUY uint32
	Unit byte // 0 unknown, 1 meters
}

// DPI returns the dots-per-inch pair, or zeros when the unit is unknown.
func (p *PhysicalDims) DPI() (float64, float64) {
	if p.Unit != 1 {
		return 0, 0
	}
	return float64(p.PPUX) / 39.3701, float64(p.PPUY) / 39.3701
}

// ICCProfile is the decoded iCCP chunk.
type ICCProfile struct {
	Name    string
	Profile []byte
}

const (
	keywordMax = 79
	// zTextThreshold is the text length at which Text entries are stored
	// compressed as zTXt instead of tEXt.
	zTextThreshold = 256
)

// validateKeyword enforces the tEXt keyword rules: 1-79 Latin-1 characters,
// no leading or trailing spaces, no nulls.
func validateKeyword(kw string) error {
	if len(kw) == 0 || len(kw) > keywordMax {
		return &InvalidKeywordError{Keyword: kw, Reason: "length must be 1-79"}
	}
	if kw[0] == ' ' || kw[len(kw)-1] == ' ' {
		return &InvalidKeywordError{Keyword: kw, Reason: "leading or trailing space"}
	}
	for i := 0; i < len(kw); i++ {
		if kw[i] == 0 {
			return &InvalidKeywordError{Keyword: kw, Reason: "embedded null"}
		}
		if kw[i] > 0x7E && kw[i] < 0xA1 {
			return &InvalidKeywordError{Keyword: kw, Reason: "non-printable Latin-1 character"}
		}
	}
	return nil
}

func splitNull(data []byte) ([]byte, []byte, bool) {
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return nil, nil, false
	}
	return data[:i], data[i+1:], true
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func deflate(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeMetadataChunk folds one ancillary chunk into md. Unknown chunk
// types are ignored without error.
func decodeMetadataChunk(c Chunk, md *Metadata) error {
	switch c.Type {
	case "tEXt":
		kw, text, ok := splitNull(c.Data)
		if !ok {
			return fmt.Errorf("tEXt: missing keyword separator")
		}
		if err := validateKeyword(string(kw)); err != nil {
			return err
		}
		if md.Text == nil {
			md.Text = map[string]string{}
		}
		md.Text[string(kw)] = string(text)
	case "zTXt":
		kw, rest, ok := splitNull(c.Data)
		if !ok || len(rest) < 1 {
			return fmt.Errorf("zTXt: malformed payload")
		}
		if err := validateKeyword(string(kw)); err != nil {
			return err
		}
		if rest[0] != 0 {
			return fmt.Errorf("zTXt: unknown compression method %d", rest[0])
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return fmt.Errorf("zTXt: %w", err)
		}
		if md.Text == nil {
			md.Text = map[string]string{}
		}
		md.Text[string(kw)] = string(text)
	case "iTXt":
		kw, rest, ok := splitNull(c.Data)
		if !ok || len(rest) < 2 {
			return fmt.Errorf("iTXt: malformed payload")
		}
		if err := validateKeyword(string(kw)); err != nil {
			return err
		}
		compFlag, compMethod := rest[0], rest[1]
		lang, rest2, ok := splitNull(rest[2:])
		if !ok {
			return fmt.Errorf("iTXt: missing language tag separator")
		}
		translated, text, ok := splitNull(rest2)
		if !ok {
			return fmt.Errorf("iTXt: missing translated keyword separator")
		}
		if compFlag == 1 {
			if compMethod != 0 {
				return fmt.Errorf("iTXt: unknown compression method %d", compMethod)
			}
			var err error
			if text, err = inflate(text); err != nil {
				return fmt.Errorf("iTXt: %w", err)
			}
		}
		md.International = append(md.International, InternationalText{
			Keyword:           string(kw),
			LanguageTag:       string(lang),
			TranslatedKeyword: string(translated),
			Text:              string(text),
			Compressed:        compFlag == 1,
		})
	case "tIME":
		if len(c.Data) != 7 {
			return fmt.Errorf("tIME: payload must be 7 bytes, got %d", len(c.Data))
		}
		year := int(binary.BigEndian.Uint16(c.Data[0:2]))
		t := time.Date(year, time.Month(c.Data[2]), int(c.Data[3]),
			int(c.Data[4]), int(c.Data[5]), int(c.Data[6]), 0, time.UTC)
		if int(c.Data[2]) < 1 || c.Data[2] > 12 || c.Data[3] < 1 || c.Data[3] > 31 ||
			c.Data[4] > 23 || c.Data[5] > 59 || c.Data[6] > 60 {
			return fmt.Errorf("tIME: field out of range")
		}
		md.Time = &t
	case "pHYs":
		if len(c.Data) != 9 {
			return fmt.Errorf("pHYs: payload must be 9 bytes, got %d", len(c.Data))
		}
		md.Physical = &PhysicalDims{
			PPUX: binary.BigEndian.Uint32(c.Data[0:4]),
			PPUY: binary.BigEndian.Uint32(c.Data[4:8]),
			Unit: c.Data[8],
		}
	case "gAMA":
		if len(c.Data) != 4 {
			return fmt.Errorf("gAMA: payload must be 4 bytes, got %d", len(c.Data))
		}
		md.Gamma = float64(binary.BigEndian.Uint32(c.Data)) / 100000
	case "sRGB":
		if len(c.Data) != 1 || c.Data[0] > 3 {
			return fmt.Errorf("sRGB: invalid rendering intent")
		}
		intent := c.Data[0]
		md.SRGBIntent = &intent
	case "sBIT":
		if len(c.Data) == 0 || len(c.Data) > 4 {
			return fmt.Errorf("sBIT: invalid payload length %d", len(c.Data))
		}
		md.SignificantBits = append([]byte(nil), c.Data...)
	case "cHRM":
		if len(c.Data) != 32 {
			return fmt.Errorf("cHRM: payload must be 32 bytes, got %d", len(c.Data))
		}
		vals := make([]uint32, 8)
		for i := range vals {
			vals[i] = binary.BigEndian.Uint32(c.Data[i*4:])
		}
		md.Chromaticity = vals
	case "iCCP":
		name, rest, ok := splitNull(c.Data)
		if !ok || len(rest) < 1 {
			return fmt.Errorf("iCCP: malformed payload")
		}
		if err := validateKeyword(string(name)); err != nil {
			return err
		}
		if rest[0] != 0 {
			return fmt.Errorf("iCCP: unknown compression method %d", rest[0])
		}
		profile, err := inflate(rest[1:])
		if err != nil {
			return fmt.Errorf("iCCP: %w", err)
		}
		md.ICCProfile = &ICCProfile{Name: string(name), Profile: profile}
	}
	return nil
}

// extractMetadata walks the ancillary chunks, recovering locally from any
// malformed one. Pixel data is never forgiving; metadata always is.
func extractMetadata(chunks []Chunk) *Metadata {
	md := &Metadata{}
	for _, c := range chunks {
		switch c.Type {
		case "IHDR", "PLTE", "IDAT", "IEND", "tRNS":
			continue
		}
		if !c.Valid {
			slog.Warn("skipping chunk with bad crc", "type", c.Type, "offset", c.Offset)
			continue
		}
		if err := decodeMetadataChunk(c, md); err != nil {
			slog.Warn("skipping malformed metadata chunk", "type", c.Type, "offset", c.Offset, "error", err)
		}
	}
	return md
}

// encodeTextChunk builds a tEXt payload.
func encodeTextChunk(keyword, text string) ([]byte, error) {
	if err := validateKeyword(keyword); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(keyword)
	buf.WriteByte(0)
	buf.WriteString(text)
	return buf.Bytes(), nil
}

// encodeZTextChunk builds a zTXt payload with a deflated text body.
func encodeZTextChunk(keyword, text string, level int) ([]byte, error) {
	if err := validateKeyword(keyword); err != nil {
		return nil, err
	}
	comp, err := deflate([]byte(text), level)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(keyword)
	buf.WriteByte(0)
	buf.WriteByte(0) // compression method: deflate
	buf.Write(comp)
	return buf.Bytes(), nil
}

func encodeITextChunk(it InternationalText, level int) ([]byte, error) {
	if err := validateKeyword(it.Keyword); err != nil {
		return nil, err
	}
	text := []byte(it.Text)
	compFlag := byte(0)
	if it.Compressed {
		var err error
		if text, err = deflate(text, level); err != nil {
			return nil, err
		}
		compFlag = 1
	}
	var buf bytes.Buffer
	buf.WriteString(it.Keyword)
	buf.WriteByte(0)
	buf.WriteByte(compFlag)
	buf.WriteByte(0) // compression method
	buf.WriteString(it.LanguageTag)
	buf.WriteByte(0)
	buf.WriteString(it.TranslatedKeyword)
	buf.WriteByte(0)
	buf.Write(text)
	return buf.Bytes(), nil
}

func encodeTimeChunk(t time.Time) []byte {
	data := make([]byte, 7)
	binary.BigEndian.PutUint16(data[0:2], uint16(t.Year()))
	data[2] = byte(t.Month())
	data[3] = byte(t.Day())
	data[4] = byte(t.Hour())
	data[5] = byte(t.Minute())
	data[6] = byte(t.Second())
	return data
}

// encodeMetadataChunks serializes md to chunks, appending to buf. A field
// that fails validation is logged and dropped; partial metadata is
// acceptable, broken pixel data is not.
func encodeMetadataChunks(buf *bytes.Buffer, md *Metadata, level int) {
	if md == nil {
		return
	}
	if md.Gamma > 0 {
		data := make([]byte, 4)
		binary.BigEndian.PutUint32(data, uint32(md.Gamma*100000+0.5))
		WriteChunk(buf, "gAMA", data)
	}
	if md.SRGBIntent != nil {
		WriteChunk(buf, "sRGB", []byte{*md.SRGBIntent})
	}
	if len(md.Chromaticity) == 8 {
		data := make([]byte, 32)
		for i, v := range md.Chromaticity {
			binary.BigEndian.PutUint32(data[i*4:], v)
		}
		WriteChunk(buf, "cHRM", data)
	}
	if len(md.SignificantBits) > 0 && len(md.SignificantBits) <= 4 {
		WriteChunk(buf, "sBIT", md.SignificantBits)
	}
	if md.ICCProfile != nil {
		if err := validateKeyword(md.ICCProfile.Name); err != nil {
			slog.Warn("dropping iCCP chunk", "error", err)
		} else if comp, err := deflate(md.ICCProfile.Profile, level); err != nil {
			slog.Warn("dropping iCCP chunk", "error", err)
		} else {
			var b bytes.Buffer
			b.WriteString(md.ICCProfile.Name)
			b.WriteByte(0)
			b.WriteByte(0)
			b.Write(comp)
			WriteChunk(buf, "iCCP", b.Bytes())
		}
	}
	if md.Physical != nil {
		data := make([]byte, 9)
		binary.BigEndian.PutUint32(data[0:4], md.Physical.PPUX)
		binary.BigEndian.PutUint32(data[4:8], md.Physical.PPUY)
		data[8] = md.Physical.Unit
		WriteChunk(buf, "pHYs", data)
	}
	if md.Time != nil {
		WriteChunk(buf, "tIME", encodeTimeChunk(*md.Time))
	}
	keywords := make([]string, 0, len(md.Text))
	for kw := range md.Text {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	for _, kw := range keywords {
		text := md.Text[kw]
		typ := "tEXt"
		var data []byte
		var err error
		if len(text) >= zTextThreshold {
			typ = "zTXt"
			data, err = encodeZTextChunk(kw, text, level)
		} else {
			data, err = encodeTextChunk(kw, text)
		}
		if err != nil {
			slog.Warn("dropping text chunk", "type", typ, "keyword", kw, "error", err)
			continue
		}
		WriteChunk(buf, typ, data)
	}
	for _, it := range md.International {
		data, err := encodeITextChunk(it, level)
		if err != nil {
			slog.Warn("dropping iTXt chunk", "keyword", it.Keyword, "error", err)
			continue
		}
		WriteChunk(buf, "iTXt", data)
	}
}
