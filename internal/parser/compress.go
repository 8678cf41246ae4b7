package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decompress wraps r in a decoder chosen by the extension of name. It
// returns the name without the compression suffix and, when a decoder was
// applied, a closer for it.
func decompress(name string, r io.Reader) (string, io.ReadCloser, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return "", nil, fmt.Errorf("gzip: %w", err)
		}
		return name[:len(name)-len(".gz")], zr, nil
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return "", nil, fmt.Errorf("zstd: %w", err)
		}
		return name[:len(name)-len(".zst")], zstdCloser{zr}, nil
	}
	return name, nil, nil
}

// zstdCloser adapts zstd.Decoder, whose Close returns nothing.
type zstdCloser struct{ *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}
