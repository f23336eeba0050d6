package collection

import (
	"encoding/hex"
	"fmt"

	mt "github.com/txaty/go-merkletree"

	"dirdiff-go/internal/hash"
)

type leaf struct {
	path string
	hash string
}

func (l leaf) Serialize() ([]byte, error) {
	return []byte(l.path + "\x00" + l.hash), nil
}

// Fingerprint is the Merkle root over the collection's (path, hash) pairs
// taken in path order. Timestamps and the root do not contribute, so two
// collections with identical content have equal fingerprints.
func (c *Collection) Fingerprint() (string, error) {
	paths := c.Paths()

	// go-merkletree needs at least two blocks
	switch len(paths) {
	case 0:
		sum, err := hash.XXHashFunc([]byte("empty-tree"))
		if err != nil {
			return "", fmt.Errorf("failed to create empty tree hash: %w", err)
		}
		return hex.EncodeToString(sum), nil
	case 1:
		data, err := leaf{path: paths[0], hash: c.byPath[paths[0]].Hash}.Serialize()
		if err != nil {
			return "", fmt.Errorf("failed to serialize leaf: %w", err)
		}
		sum, err := hash.XXHashFunc(data)
		if err != nil {
			return "", fmt.Errorf("failed to hash leaf: %w", err)
		}
		return hex.EncodeToString(sum), nil
	}

	blocks := make([]mt.DataBlock, 0, len(paths))
	for _, p := range paths {
		blocks = append(blocks, leaf{path: p, hash: c.byPath[p].Hash})
	}

	tree, err := mt.New(&mt.Config{
		HashFunc: hash.XXHashFunc,
		Mode:     mt.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return "", fmt.Errorf("failed to build merkle tree: %w", err)
	}
	return hex.EncodeToString(tree.Root), nil
}
