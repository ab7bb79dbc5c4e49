// Package reader loads file bytes for cache misses (§4.3) and computes
// two digests: a fast xxhash fingerprint (recorded on the FileRecord)
// and the blake3 digest the cache's deep check compares and persists as
// its authoritative content hash.
package reader

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"
)

// Result is the byte content plus both digests for one file read.
type Result struct {
	Bytes     []byte
	XXHash    uint64
	Blake3Sum [32]byte
}

// Read loads path and computes both digests over the loaded bytes.
func Read(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reader: %w", err)
	}
	return Result{
		Bytes:     data,
		XXHash:    xxhash.Sum64(data),
		Blake3Sum: blake3.Sum256(data),
	}, nil
}

// Blake3Hex renders the blake3 digest as the hex string the cache
// stores in its persisted entries.
func (r Result) Blake3Hex() string {
	return fmt.Sprintf("%x", r.Blake3Sum)
}
