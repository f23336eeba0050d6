// Package collection holds the snapshot of one directory tree: a
// path-to-hash map kept in lockstep with its inverse hash-to-paths index.
package collection

import (
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"dirdiff-go/internal/hash"
)

// Collection maps root-relative paths to their Record and indexes the
// paths sharing each hash. The two indices are only reachable through
// SetHash and RemovePath, which keep byHash the exact inverse of byPath.
//
// A Collection is not safe for concurrent mutation.
type Collection struct {
	root      string
	algorithm hash.Algorithm
	byPath    map[string]Record
	byHash    map[string]map[string]struct{}
}

// New returns an empty collection rooted at root.
func New(root string, algorithm hash.Algorithm) *Collection {
	if algorithm == "" {
		algorithm = hash.Default
	}
	return &Collection{
		root:      root,
		algorithm: algorithm,
		byPath:    make(map[string]Record),
		byHash:    make(map[string]map[string]struct{}),
	}
}

func (c *Collection) Root() string              { return c.root }
func (c *Collection) Algorithm() hash.Algorithm { return c.algorithm }

// Len is the number of distinct paths, not distinct hashes.
func (c *Collection) Len() int { return len(c.byPath) }

// HashCount is the number of distinct hashes.
func (c *Collection) HashCount() int { return len(c.byHash) }

// CleanPath normalizes p to a slash-separated, root-relative path. It
// rejects empty and absolute paths and any path with a ".." component.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	slashed := filepath.ToSlash(p)
	if filepath.IsAbs(p) || strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q escapes the root", ErrInvalidPath, p)
		}
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// SetHash inserts or overwrites the record for p. Hex digests are stored
// lowercase. When p was stored under another hash, it is first removed
// from that hash's bucket.
func (c *Collection) SetHash(p string, r Record) error {
	key, err := CleanPath(p)
	if err != nil {
		return err
	}
	if r.Hash == "" {
		return fmt.Errorf("%w: empty hash for %q", ErrInvalidRecord, key)
	}
	r.Hash = strings.ToLower(r.Hash)

	if old, ok := c.byPath[key]; ok && old.Hash != r.Hash {
		c.unindex(key, old.Hash)
	}
	c.byPath[key] = r

	bucket, ok := c.byHash[r.Hash]
	if !ok {
		bucket = make(map[string]struct{})
		c.byHash[r.Hash] = bucket
	}
	bucket[key] = struct{}{}
	return nil
}

// RemovePath deletes p from both indices. Absent (or never valid) paths
// are a no-op.
func (c *Collection) RemovePath(p string) {
	key, err := CleanPath(p)
	if err != nil {
		return
	}
	old, ok := c.byPath[key]
	if !ok {
		return
	}
	delete(c.byPath, key)
	c.unindex(key, old.Hash)
}

func (c *Collection) unindex(key, h string) {
	bucket := c.byHash[h]
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(c.byHash, h)
	}
}

// Get returns the record stored for p.
func (c *Collection) Get(p string) (Record, bool) {
	key, err := CleanPath(p)
	if err != nil {
		return Record{}, false
	}
	r, ok := c.byPath[key]
	return r, ok
}

// Paths returns every tracked path in sorted order.
func (c *Collection) Paths() []string {
	return slices.Sorted(maps.Keys(c.byPath))
}

// PathsWithHash returns the sorted paths whose content hashes to h.
func (c *Collection) PathsWithHash(h string) []string {
	bucket, ok := c.byHash[strings.ToLower(h)]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(bucket))
}

// Duplicates returns, keyed by hash, every group of two or more paths
// sharing that hash.
func (c *Collection) Duplicates() map[string][]string {
	groups := make(map[string][]string)
	for h, bucket := range c.byHash {
		if len(bucket) < 2 {
			continue
		}
		groups[h] = slices.Sorted(maps.Keys(bucket))
	}
	return groups
}

// Records returns a copy of the path index.
func (c *Collection) Records() map[string]Record {
	return maps.Clone(c.byPath)
}
