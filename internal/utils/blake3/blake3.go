// Package blake3 computes the hex content digests carried in the
// X-Medoro-Content-Digest header.
package blake3

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

func Compute(data io.Reader) (string, error) {
	hash := blake3.New()
	if _, err := io.Copy(hash, data); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// SumBytes is the in-memory form of Compute.
func SumBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
