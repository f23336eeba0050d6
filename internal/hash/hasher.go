package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	gohash "hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// Algorithm names a content hash primitive.
type Algorithm string

const (
	XXHash Algorithm = "xxhash"
	BLAKE3 Algorithm = "blake3"
	SHA256 Algorithm = "sha256"
)

// Default is used when neither the config nor a snapshot names an algorithm.
const Default = XXHash

var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Func hashes the file at path and returns a hex digest.
type Func func(path string) (string, error)

// Algorithms lists the supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{XXHash, BLAKE3, SHA256}
}

// ParseAlgorithm maps a name to an Algorithm. An empty name yields Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return Default, nil
	case XXHash:
		return XXHash, nil
	case BLAKE3:
		return BLAKE3, nil
	case SHA256:
		return SHA256, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// HexLen is the length of a hex digest produced by a.
func (a Algorithm) HexLen() int {
	switch a {
	case XXHash:
		return 16
	case BLAKE3, SHA256:
		return 64
	}
	return 0
}

func (a Algorithm) newHash() (gohash.Hash, error) {
	switch a {
	case XXHash:
		return xxhash.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	case SHA256:
		return sha256.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
}

// Func returns a file hashing function for a.
func (a Algorithm) Func() (Func, error) {
	if _, err := a.newHash(); err != nil {
		return nil, err
	}
	return func(path string) (string, error) {
		return HashFileWith(a, path)
	}, nil
}

// HashFile computes the xxHash of a file using streaming for large files
func HashFile(path string) (string, error) {
	return HashFileWith(XXHash, path)
}

// HashFileWith streams the file at path through the given algorithm.
func HashFileWith(a Algorithm, path string) (string, error) {
	h, err := a.newHash()
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(h, file, buf); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// XXHashFunc is a custom hash function adapter for go-merkletree
// It converts []byte input to xxHash []byte output
func XXHashFunc(data []byte) ([]byte, error) {
	sum := xxhash.Sum64(data)

	// Convert uint64 to []byte in big-endian format
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, sum)
	return buf, nil
}
