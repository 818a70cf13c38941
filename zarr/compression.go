package zarr

import (
	"io"

	"github.com/qri-io/dataset/compression"
)

// Compressor ids understood when encoding and decoding chunks.
const (
	CompressorZstd = "zstd"
	CompressorGzip = "gzip"
)

// CompressionMeta defines compression settings zarr-go understands. A nil
// *CompressionMeta, or one with an empty ID, stores chunks uncompressed.
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m == nil || m.ID == "" {
		return r, nil
	}
	return compression.Decompressor(m.ID, r)
}

// Compressor wraps w so that writes are compressed. Callers must Close the
// returned writer to flush it; w itself is left open.
func (m *CompressionMeta) Compressor(w io.Writer) (io.WriteCloser, error) {
	if m == nil || m.ID == "" {
		return nopWriteCloser{w}, nil
	}
	return compression.Compressor(m.ID, w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
