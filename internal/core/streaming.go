package core

// streaming.go prepares the raw import bytes for the CSV reader.
//
// Exports from spreadsheet tools arrive in whatever encoding the exporting
// machine used. The readers here decode permissively instead of failing:
//
//   - BOMSkippingReader: drops a leading UTF-8 byte order mark
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - charmap decoders: reinterpret single-byte encodings as UTF-8
//   - CountingReader: tracks bytes consumed for the run summary
//
// Use DecodeInput to build the chain for a configured encoding.

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeEncoding maps accepted spellings to a supported encoding name.
func NormalizeEncoding(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "binary":
		return EncodingLatin1, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// DecodedInput is the UTF-8 text stream of an import source together with
// the counter over its raw bytes.
type DecodedInput struct {
	io.Reader
	Raw *CountingReader
}

// DecodeInput wraps r so that it yields UTF-8 text according to encoding.
// totalSize is used for progress and may be 0 when unknown.
func DecodeInput(r io.Reader, encoding string, totalSize int64) (*DecodedInput, error) {
	enc, err := NormalizeEncoding(encoding)
	if err != nil {
		return nil, err
	}

	counter := NewCountingReader(r, totalSize)
	text := NewBOMSkippingReader(counter)

	var decoded io.Reader
	switch enc {
	case EncodingLatin1:
		decoded = charmap.ISO8859_1.NewDecoder().Reader(text)
	case EncodingWindows1252:
		decoded = charmap.Windows1252.NewDecoder().Reader(text)
	default:
		decoded = NewUTF8Sanitizer(text)
	}
	return &DecodedInput{Reader: decoded, Raw: counter}, nil
}

// BOMSkippingReader drops a leading UTF-8 BOM (0xEF 0xBB 0xBF), which
// Windows spreadsheet exports commonly prepend and which would otherwise
// become part of the first header name.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err == nil && string(head) == string(utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as data streams
// through. A multi-byte sequence split across reads is held back until the
// next read completes it.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8Sanitizer creates a sanitizing reader.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the usable length.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			data[write] = '?'
			write++
			read++
			continue
		}

		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader tracks bytes read for the run summary.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 when
// the total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}
