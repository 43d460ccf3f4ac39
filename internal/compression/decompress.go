// Package compression decompresses single compressed image sources.
package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// MaxDecompressedSize bounds the output of a single decompression.
const MaxDecompressedSize = 256 * 1024 * 1024

// ErrSizeLimit is returned when decompressed output exceeds its limit.
var ErrSizeLimit = errors.New("decompression size limit exceeded")

// Format is a supported single-stream compression format.
type Format string

const (
	FormatNone  Format = ""
	FormatGzip  Format = "gz"
	FormatXz    Format = "xz"
	FormatBzip2 Format = "bz2"
)

// DetectFormat returns the compression format implied by the file name.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return FormatGzip
	case ".xz":
		return FormatXz
	case ".bz2":
		return FormatBzip2
	default:
		return FormatNone
	}
}

// StripExtension removes the compression suffix from name, if any.
func StripExtension(name string) string {
	if DetectFormat(name) == FormatNone {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Decompress decodes data according to the compression suffix of name.
// Uncompressed data is returned unchanged.
func Decompress(data []byte, name string) ([]byte, error) {
	var r io.Reader
	switch DetectFormat(name) {
	case FormatNone:
		return data, nil
	case FormatGzip:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case FormatXz:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	case FormatBzip2:
		r = bzip2.NewReader(bytes.NewReader(data))
	}

	out, err := io.ReadAll(NewLimitedReader(r, MaxDecompressedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", filepath.Base(name), err)
	}
	return out, nil
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// This prevents decompression bombs from exhausting memory.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, ErrSizeLimit
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
