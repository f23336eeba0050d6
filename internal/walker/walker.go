package walker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dirdiff-go/internal/hash"
)

type FileInfo struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the walk root
	Size    int64
	ModTime time.Time
}

// WalkResult lists the regular files found under a root. Skipped holds the
// relative paths of symlinks and special files, which are never hashed.
// Errors holds per-file failures that did not stop the walk.
type WalkResult struct {
	Files   []FileInfo
	Skipped []string
	Errors  []error
}

// Progress receives one Increment per hashed (or failed) file.
type Progress interface {
	SetDirectory(dir string)
	Increment()
}

// Walk enumerates the regular files under rootPath. Failing to read a
// directory aborts the walk; failing to stat a single file is recorded in
// Errors and the file is left out.
func Walk(rootPath string, exclusions []string) (*WalkResult, error) {
	result := &WalkResult{
		Files:   make([]FileInfo, 0),
		Skipped: make([]string, 0),
		Errors:  make([]error, 0),
	}

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if shouldExclude(relPath, exclusions) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		// Symlinks, devices, sockets and pipes are skipped, never followed
		if !d.Type().IsRegular() {
			result.Skipped = append(result.Skipped, filepath.ToSlash(relPath))
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			return nil
		}

		result.Files = append(result.Files, FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].RelPath < result.Files[j].RelPath
	})
	sort.Strings(result.Skipped)

	return result, nil
}

func shouldExclude(relPath string, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			// Check if the current path or any parent matches the directory pattern
			parts := strings.Split(relPath, string(filepath.Separator))
			for _, part := range parts {
				if matched, _ := filepath.Match(dirPattern, part); matched {
					return true
				}
			}
		} else {
			matched, err := filepath.Match(pattern, filepath.Base(relPath))
			if err == nil && matched {
				return true
			}
			// Patterns with a slash match against the full relative path
			if strings.Contains(pattern, "/") {
				matched, err := filepath.Match(filepath.FromSlash(pattern), relPath)
				if err == nil && matched {
					return true
				}
			}
		}
	}
	return false
}

// HashResult maps relative paths to hex digests. Files that failed to hash
// appear in Errors only.
type HashResult struct {
	Hashes map[string]string
	Errors []error
}

type hashJobResult struct {
	file FileInfo
	hash string
	err  error
}

// HashFiles hashes files on a pool of numWorkers goroutines. A failing file
// is recorded in the result and does not stop the others; only context
// cancellation makes HashFiles return an error.
func HashFiles(ctx context.Context, files []FileInfo, numWorkers int, hasher hash.Func, progress Progress) (*HashResult, error) {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	result := &HashResult{
		Hashes: make(map[string]string, len(files)),
		Errors: make([]error, 0),
	}

	if len(files) == 0 {
		return result, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	results := make(chan hashJobResult, numWorkers)

	var waitErr error
	go func() {
		for _, file := range files {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				sum, err := hasher(file.Path)
				select {
				case results <- hashJobResult{file: file, hash: sum, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
		if waitErr == nil {
			waitErr = ctx.Err()
		}
		close(results)
	}()

	// Single collector: the only writer of result
	for jobResult := range results {
		if jobResult.err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", jobResult.file.Path, jobResult.err))
		} else {
			result.Hashes[jobResult.file.RelPath] = jobResult.hash
		}

		if progress != nil {
			progress.SetDirectory(filepath.Dir(jobResult.file.Path))
			progress.Increment()
		}
	}

	if waitErr != nil {
		return nil, fmt.Errorf("hashing interrupted: %w", waitErr)
	}
	return result, nil
}
