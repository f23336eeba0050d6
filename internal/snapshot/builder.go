// Package snapshot builds hash collections, either by hashing a directory
// tree or by loading a previously saved snapshot file.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dirdiff-go/internal/collection"
	"dirdiff-go/internal/hash"
	"dirdiff-go/internal/walker"
)

var ErrInvalidRoot = errors.New("invalid root")

// ErrorSink receives recoverable per-file failures.
type ErrorSink interface {
	Log(message string)
}

// Progress is fed by the hashing pool. AddTotal is called once per
// directory build, before hashing starts.
type Progress interface {
	walker.Progress
	AddTotal(n int64)
}

type Kind int

const (
	KindDirectory Kind = iota
	KindSnapshot
)

func (k Kind) String() string {
	if k == KindSnapshot {
		return "snapshot"
	}
	return "directory"
}

// Source is a validated comparison input.
type Source struct {
	Path string
	Kind Kind
}

type Options struct {
	Exclude   []string
	Workers   int
	Algorithm hash.Algorithm
	Sink      ErrorSink
	Progress  Progress
	// Hasher overrides the algorithm's file hashing function.
	Hasher hash.Func
}

type Builder struct {
	opts Options
}

type nopSink struct{}

func (nopSink) Log(string) {}

func New(opts Options) *Builder {
	if opts.Algorithm == "" {
		opts.Algorithm = hash.Default
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	return &Builder{opts: opts}
}

// WithAlgorithm returns a builder sharing b's options except the algorithm.
func (b *Builder) WithAlgorithm(a hash.Algorithm) *Builder {
	opts := b.opts
	opts.Algorithm = a
	return &Builder{opts: opts}
}

func (b *Builder) Algorithm() hash.Algorithm {
	return b.opts.Algorithm
}

// Resolve checks that path exists and is a directory or a regular file.
func Resolve(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	switch {
	case info.IsDir():
		return Source{Path: path, Kind: KindDirectory}, nil
	case info.Mode().IsRegular():
		return Source{Path: path, Kind: KindSnapshot}, nil
	}
	return Source{}, fmt.Errorf("%w: %s is neither a directory nor a regular file", ErrInvalidRoot, path)
}

func (b *Builder) Build(ctx context.Context, src Source) (*collection.Collection, error) {
	if src.Kind == KindSnapshot {
		return b.FromSnapshot(src.Path)
	}
	return b.FromDirectory(ctx, src.Path)
}

// FromDirectory hashes every regular file under root. Files that cannot be
// hashed are reported to the sink and left out of the collection.
func (b *Builder) FromDirectory(ctx context.Context, root string) (*collection.Collection, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	// A symlinked root is followed; symlinks below it are still skipped
	walkRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	hasher := b.opts.Hasher
	if hasher == nil {
		if hasher, err = b.opts.Algorithm.Func(); err != nil {
			return nil, err
		}
	}

	walkResult, err := walker.Walk(walkRoot, b.opts.Exclude)
	if err != nil {
		return nil, err
	}
	for _, walkErr := range walkResult.Errors {
		b.opts.Sink.Log(walkErr.Error())
	}

	var progress walker.Progress
	if b.opts.Progress != nil {
		b.opts.Progress.AddTotal(int64(len(walkResult.Files)))
		progress = b.opts.Progress
	}

	hashResult, err := walker.HashFiles(ctx, walkResult.Files, b.opts.Workers, hasher, progress)
	if err != nil {
		return nil, err
	}
	for _, hashErr := range hashResult.Errors {
		b.opts.Sink.Log(hashErr.Error())
	}

	c := collection.New(absRoot, b.opts.Algorithm)
	for _, file := range walkResult.Files {
		sum, ok := hashResult.Hashes[file.RelPath]
		if !ok {
			continue
		}
		if err := c.SetHash(file.RelPath, collection.NewRecord(sum, file.ModTime)); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", file.Path, err)
		}
	}
	return c, nil
}

// FromSnapshot loads a collection saved with collection.Save.
func (b *Builder) FromSnapshot(path string) (*collection.Collection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", ErrInvalidRoot, path)
	}

	c, err := collection.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", path, err)
	}
	return c, nil
}
