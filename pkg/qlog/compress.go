package qlog

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/qlogtree/pkg/errors"
)

// Compression identifies the container format of a trace file.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect inspects the leading bytes of data.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Decompress returns the plain trace bytes and the detected compression.
// Uncompressed input is returned unchanged.
func Decompress(data []byte) ([]byte, Compression, error) {
	c := Detect(data)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, errors.Wrap(errors.ErrCodeTraceFormat, err, "open gzip trace")
		}
		defer zr.Close()
		plain, err := io.ReadAll(zr)
		if err != nil {
			return nil, c, errors.Wrap(errors.ErrCodeTraceFormat, err, "read gzip trace")
		}
		return plain, c, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, errors.Wrap(errors.ErrCodeTraceFormat, err, "open zstd trace")
		}
		defer zr.Close()
		plain, err := io.ReadAll(zr)
		if err != nil {
			return nil, c, errors.Wrap(errors.ErrCodeTraceFormat, err, "read zstd trace")
		}
		return plain, c, nil
	default:
		return data, c, nil
	}
}
