package core

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("SYSTEM_KEY,EN")...),
			expected: "SYSTEM_KEY,EN",
		},
		{
			name:     "file without BOM",
			input:    []byte("SYSTEM_KEY,EN"),
			expected: "SYSTEM_KEY,EN",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"valid multibyte", []byte("café ünïcode"), "café ünïcode"},
		{"invalid byte", []byte{'a', 0xFF, 'b'}, "a?b"},
		{"truncated sequence at EOF", []byte{'a', 0xC3}, "a?"},
		{"bad continuation", []byte{0xC3, 'x'}, "?x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitAcrossReads(t *testing.T) {
	input := []byte("prix: 5€ / été")
	// OneByteReader forces every multi-byte rune to straddle reads.
	result, err := io.ReadAll(NewUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != string(input) {
		t.Errorf("got %q, want %q", string(result), string(input))
	}
}

func TestDecodeInput(t *testing.T) {
	// "café" in ISO-8859-1 and "5€" in Windows-1252.
	latin1 := []byte{'c', 'a', 'f', 0xE9}
	cp1252 := []byte{'5', 0x80}
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("KEY")...)

	tests := []struct {
		name     string
		input    []byte
		encoding string
		expected string
	}{
		{"utf-8 default", []byte("été"), "", "été"},
		{"utf-8 sanitizes", latin1, "utf-8", "caf?"},
		{"utf-8 strips BOM", withBOM, "utf8", "KEY"},
		{"latin1", latin1, "latin1", "café"},
		{"binary alias", latin1, "binary", "café"},
		{"windows-1252", cp1252, "windows-1252", "5€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInput(bytes.NewReader(tt.input), tt.encoding, int64(len(tt.input)))
			if err != nil {
				t.Fatalf("DecodeInput() error = %v", err)
			}
			result, err := io.ReadAll(in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
			if in.Raw.BytesRead != int64(len(tt.input)) {
				t.Errorf("BytesRead = %d, want %d", in.Raw.BytesRead, len(tt.input))
			}
			if len(tt.input) > 0 && in.Raw.Progress() != 100 {
				t.Errorf("Progress = %d, want 100", in.Raw.Progress())
			}
		})
	}
}

func TestDecodeInput_UnknownEncoding(t *testing.T) {
	_, err := DecodeInput(bytes.NewReader(nil), "ebcdic", 0)
	if !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("error = %v, want ErrUnknownEncoding", err)
	}
}

func TestCountingReader_UnknownTotal(t *testing.T) {
	c := NewCountingReader(bytes.NewReader([]byte("abc")), 0)
	if _, err := io.ReadAll(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BytesRead != 3 {
		t.Errorf("BytesRead = %d, want 3", c.BytesRead)
	}
	if c.Progress() != 0 {
		t.Errorf("Progress = %d, want 0", c.Progress())
	}
}
