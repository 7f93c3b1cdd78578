// Package codec implements the reversible transform applied to cached
// response bodies: a deflate-compressed stream wrapped in base64 so the
// stored value stays text-safe.
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compress deflates data and returns it base64-encoded.
func Compress(data []byte) (string, error) {
	var buf bytes.Buffer

	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("zlib write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("zlib close: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress is the exact inverse of Compress.
// A failure here means the stored entry is corrupted; callers must not
// swallow it.
func Decompress(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zlib read: %w", err)
	}

	return data, nil
}
