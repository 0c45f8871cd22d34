package core

// streaming.go wraps uploaded files before CSV parsing:
//
//   - a size guard that fails once a file grows past the configured limit
//   - BOM handling (UTF-8 BOMs are dropped, UTF-16 BOMs switch decoders)
//   - UTF-8 validation that swaps invalid bytes for U+FFFD
//
// Everything streams; memory stays bounded by the transform buffers.

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewDecodingReader returns r decoded to clean UTF-8.
func NewDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// FileTooLargeError reports a file that exceeded the import size limit.
type FileTooLargeError struct {
	Name  string
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s exceeds %d bytes", e.Name, e.Limit)
}

// sizeLimitReader fails with FileTooLargeError after limit bytes.
type sizeLimitReader struct {
	r     io.Reader
	name  string
	limit int64
	read  int64
}

// NewSizeLimitReader caps r at limit bytes. A limit <= 0 disables the cap.
func NewSizeLimitReader(r io.Reader, name string, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &sizeLimitReader{r: r, name: name, limit: limit}
}

func (s *sizeLimitReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.read += int64(n)
	if s.read > s.limit {
		return n, &FileTooLargeError{Name: s.name, Limit: s.limit}
	}
	return n, err
}

// WrapForImport applies the size guard and decoding in the right order.
func WrapForImport(r io.Reader, name string, limit int64) io.Reader {
	return NewDecodingReader(NewSizeLimitReader(r, name, limit))
}
