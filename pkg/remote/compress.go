package remote

import (
	"strings"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(responseLimitBatch*4))
)

// compressZstd compresses data using zstd.
func compressZstd(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, nil)
}

// decompressZstd decompresses zstd-compressed data.
func decompressZstd(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}

// IsZstdEncoded checks if the content encoding includes zstd.
func IsZstdEncoded(contentEncoding string) bool {
	return strings.Contains(contentEncoding, "zstd")
}
