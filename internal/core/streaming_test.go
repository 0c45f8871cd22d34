package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNewDecodingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with UTF-8 BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
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
			name:     "multibyte kept",
			input:    []byte("naïve,café"),
			expected: "naïve,café",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he�lo",
		},
		{
			name:     "UTF-16LE with BOM",
			input:    []byte{0xFF, 0xFE, 'i', 0, 'd', 0, '\n', 0},
			expected: "id\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewDecodingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestSizeLimitReader(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		got, err := io.ReadAll(NewSizeLimitReader(strings.NewReader("abc"), "a.csv", 3))
		if err != nil || string(got) != "abc" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := io.ReadAll(NewSizeLimitReader(strings.NewReader("abcd"), "a.csv", 3))
		var tooLarge *FileTooLargeError
		if !errors.As(err, &tooLarge) {
			t.Fatalf("err = %v, want *FileTooLargeError", err)
		}
		if tooLarge.Name != "a.csv" || MapError(err).Code != "FILE001" {
			t.Errorf("error = %+v, code %s", tooLarge, MapError(err).Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		r := strings.NewReader("abcd")
		if NewSizeLimitReader(r, "a.csv", 0) != io.Reader(r) {
			t.Error("limit 0 should return the reader unchanged")
		}
	})
}

func TestWrapForImport_PropagatesSizeError(t *testing.T) {
	big := strings.Repeat("x", 5000)
	_, err := io.ReadAll(WrapForImport(strings.NewReader(big), "big.csv", 100))
	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Errorf("err = %v, want *FileTooLargeError", err)
	}
}
