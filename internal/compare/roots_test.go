package compare

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirdiff-go/internal/collection"
	"dirdiff-go/internal/hash"
	"dirdiff-go/internal/snapshot"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

func TestRoots_Directories(t *testing.T) {
	left := writeTree(t, map[string]string{"a.txt": "same", "b.txt": "old", "gone.txt": "x"})
	right := writeTree(t, map[string]string{"a.txt": "same", "b.txt": "new", "c/new.txt": "y"})

	result, err := Roots(context.Background(), snapshot.New(snapshot.Options{Workers: 2}), left, right)
	require.NoError(t, err)

	assert.Equal(t, []string{"c/new.txt"}, paths(result.Added))
	assert.Equal(t, []string{"gone.txt"}, paths(result.Removed))
	assert.Equal(t, []string{"b.txt"}, paths(result.Modified))
	assert.Equal(t, []string{"a.txt"}, paths(result.Unchanged))
	assert.Equal(t, left, result.LeftRoot)
	assert.Equal(t, right, result.RightRoot)
}

func TestRoots_SnapshotAgainstDirectory(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})

	// snapshot taken with BLAKE3; the default builder hashes with xxhash
	saved, err := snapshot.New(snapshot.Options{Algorithm: hash.BLAKE3}).FromDirectory(context.Background(), dir)
	require.NoError(t, err)
	snapPath := filepath.Join(t.TempDir(), "before.json")
	require.NoError(t, collection.Save(saved, snapPath))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta v2"), 0644))

	result, err := Roots(context.Background(), snapshot.New(snapshot.Options{}), snapPath, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, paths(result.Unchanged), "directory side must use the snapshot's algorithm")
	assert.Equal(t, []string{"b.txt"}, paths(result.Modified))
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
}

func TestRoots_TwoSnapshots(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "alpha"})
	b := snapshot.New(snapshot.Options{})

	c, err := b.FromDirectory(context.Background(), dir)
	require.NoError(t, err)
	first := filepath.Join(t.TempDir(), "first.json")
	require.NoError(t, collection.Save(c, first))

	require.NoError(t, c.SetHash("extra.txt", collection.Record{Hash: h(1), Modified: 1}))
	second := filepath.Join(t.TempDir(), "second.json")
	require.NoError(t, collection.Save(c, second))

	result, err := Roots(context.Background(), b, first, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"extra.txt"}, paths(result.Added))
}

func TestRoots_InvalidRootBeforeHashing(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "alpha"})
	var calls atomic.Int32
	b := snapshot.New(snapshot.Options{
		Hasher: func(path string) (string, error) {
			calls.Add(1)
			return hash.HashFile(path)
		},
	})

	result, err := Roots(context.Background(), b, dir, filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, snapshot.ErrInvalidRoot)
	assert.Nil(t, result)
	assert.Zero(t, calls.Load(), "no file may be hashed when a root is invalid")

	_, err = Roots(context.Background(), b, filepath.Join(dir, "missing"), dir)
	require.ErrorIs(t, err, snapshot.ErrInvalidRoot)
	assert.Zero(t, calls.Load())
}

func TestRoots_MalformedSnapshotIsFatal(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "alpha"})
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"files":{}}`), 0644))

	result, err := Roots(context.Background(), snapshot.New(snapshot.Options{}), bad, dir)
	require.ErrorIs(t, err, collection.ErrMalformedSnapshot)
	assert.Nil(t, result)
}

func TestRoots_Cancelled(t *testing.T) {
	left := writeTree(t, map[string]string{"a.txt": "alpha"})
	right := writeTree(t, map[string]string{"a.txt": "alpha"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Roots(ctx, snapshot.New(snapshot.Options{}), left, right)
	require.ErrorIs(t, err, context.Canceled)
}
