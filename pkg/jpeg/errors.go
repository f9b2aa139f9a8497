package jpeg

import "fmt"

// StructuralError reports a malformed JPEG container: bad SOI, truncated
// segment, or marker sequence violation. Always fatal.
type StructuralError struct {
	Rule   string
	Offset int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("jpeg: structural error at offset %d: %s", e.Offset, e.Rule)
}

// InvalidQualityError reports a quality factor outside 1-100.
type InvalidQualityError struct {
	Quality int
}

func (e *InvalidQualityError) Error() string {
	return fmt.Sprintf("jpeg: quality must be 1-100, got %d", e.Quality)
}

// UnsupportedError reports a valid JPEG feature this codec does not handle
// (progressive scans, arithmetic coding, 12-bit precision).
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "jpeg: unsupported: " + string(e)
}
