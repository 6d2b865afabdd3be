// Package fingerprint computes stable content digests for files.
package fingerprint

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
)

// ChunkSize is the number of bytes read from the stream per iteration.
const ChunkSize = 4096

// Sum streams r through SHA-512 in ChunkSize reads until end of stream and
// returns the lowercase hex digest. Identical content always produces the same
// string regardless of how the reader splits its reads.
//
// A failed read is returned as-is, wrapped; Sum never retries.
func Sum(r io.Reader) (string, error) {
	hasher := sha512.New()
	buffer := make([]byte, ChunkSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading chunk: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
