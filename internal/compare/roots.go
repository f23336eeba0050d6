package compare

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dirdiff-go/internal/collection"
	"dirdiff-go/internal/snapshot"
)

type side struct {
	name string
	src  snapshot.Source
	c    *collection.Collection
}

// Roots compares two inputs, each a directory or a saved snapshot. Both
// paths are validated before any hashing starts. Snapshots load first so a
// directory compared against one is hashed with the snapshot's algorithm;
// directories are then hashed concurrently.
func Roots(ctx context.Context, b *snapshot.Builder, left, right string) (*Diff, error) {
	sides := []*side{{name: "left"}, {name: "right"}}
	for i, path := range []string{left, right} {
		src, err := snapshot.Resolve(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sides[i].name, err)
		}
		sides[i].src = src
	}

	var loaded *collection.Collection
	for _, s := range sides {
		if s.src.Kind != snapshot.KindSnapshot {
			continue
		}
		c, err := b.FromSnapshot(s.src.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		s.c = c
		loaded = c
	}

	builder := b
	if loaded != nil && loaded.Algorithm() != b.Algorithm() {
		builder = b.WithAlgorithm(loaded.Algorithm())
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sides {
		if s.c != nil {
			continue
		}
		g.Go(func() error {
			c, err := builder.FromDirectory(gctx, s.src.Path)
			if err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
			s.c = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Compare(sides[0].c, sides[1].c), nil
}
