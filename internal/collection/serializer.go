package collection

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"dirdiff-go/internal/hash"
)

const (
	// Generator tags every snapshot written by this tool; documents
	// carrying another tag are rejected on load.
	Generator     = "dirdiff-go"
	FormatVersion = 1
)

type SerializedCollection struct {
	Generator   string                     `json:"generator"`
	Version     int                        `json:"version"`
	Created     time.Time                  `json:"created"`
	Root        string                     `json:"root"`
	Algorithm   string                     `json:"algorithm"`
	Fingerprint string                     `json:"fingerprint,omitempty"`
	Files       map[string]SerializedEntry `json:"files"`
}

type SerializedEntry struct {
	Hash     string `json:"hash"`
	Modified string `json:"modified"`
}

// decode-side mirror of SerializedCollection; pointers and raw messages
// let absent fields be told apart from zero values
type rawCollection struct {
	Generator   *string                    `json:"generator"`
	Version     *int                       `json:"version"`
	Root        *string                    `json:"root"`
	Algorithm   string                     `json:"algorithm"`
	Fingerprint string                     `json:"fingerprint"`
	Files       map[string]json.RawMessage `json:"files"`
}

type rawEntry struct {
	Hash     *string         `json:"hash"`
	Modified json.RawMessage `json:"modified"`
}

// Serialize encodes the collection as an indented JSON snapshot document.
func (c *Collection) Serialize() ([]byte, error) {
	fingerprint, err := c.Fingerprint()
	if err != nil {
		return nil, err
	}

	files := make(map[string]SerializedEntry, len(c.byPath))
	for p, r := range c.byPath {
		files[p] = SerializedEntry{
			Hash:     r.Hash,
			Modified: strconv.FormatInt(r.Modified, 10),
		}
	}

	serialized := SerializedCollection{
		Generator:   Generator,
		Version:     FormatVersion,
		Created:     time.Now().UTC(),
		Root:        c.root,
		Algorithm:   string(c.algorithm),
		Fingerprint: fingerprint,
		Files:       files,
	}

	data, err := json.MarshalIndent(serialized, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return data, nil
}

// Deserialize rebuilds a collection from a snapshot document. The hash
// index is re-derived from the file entries.
func Deserialize(data []byte) (*Collection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	switch {
	case raw.Generator == nil:
		return nil, fmt.Errorf("%w: missing generator tag", ErrMalformedSnapshot)
	case *raw.Generator != Generator:
		return nil, fmt.Errorf("%w: generator %q is not %q", ErrMalformedSnapshot, *raw.Generator, Generator)
	case raw.Version != nil && *raw.Version != FormatVersion:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, *raw.Version)
	case raw.Root == nil:
		return nil, fmt.Errorf("%w: missing root", ErrMalformedSnapshot)
	case raw.Files == nil:
		return nil, fmt.Errorf("%w: missing files", ErrMalformedSnapshot)
	}

	algorithm, err := hash.ParseAlgorithm(raw.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	c := New(*raw.Root, algorithm)
	for _, p := range slices.Sorted(maps.Keys(raw.Files)) {
		key, err := CleanPath(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
		}
		// two spellings of one path would silently overwrite each other
		if _, dup := c.byPath[key]; dup {
			return nil, fmt.Errorf("%w: %q duplicates another entry for %q", ErrCorruptEntry, p, key)
		}
		r, err := decodeEntry(raw.Files[p], algorithm)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrCorruptEntry, p, err)
		}
		if err := c.SetHash(key, r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
		}
	}

	if raw.Fingerprint != "" {
		fingerprint, err := c.Fingerprint()
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(fingerprint, raw.Fingerprint) {
			return nil, fmt.Errorf("%w: fingerprint %s does not match entries (%s)", ErrCorruptEntry, raw.Fingerprint, fingerprint)
		}
	}

	return c, nil
}

func decodeEntry(data json.RawMessage, algorithm hash.Algorithm) (Record, error) {
	var entry rawEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Record{}, err
	}
	if entry.Hash == nil || *entry.Hash == "" {
		return Record{}, errors.New("missing hash")
	}
	h := *entry.Hash
	if _, err := hex.DecodeString(h); err != nil {
		return Record{}, fmt.Errorf("hash is not hex: %v", err)
	}
	if len(h) != algorithm.HexLen() {
		return Record{}, fmt.Errorf("hash has %d hex chars, %s digests have %d", len(h), algorithm, algorithm.HexLen())
	}

	modified, err := parseModified(entry.Modified)
	if err != nil {
		return Record{}, err
	}
	return Record{Hash: h, Modified: modified}, nil
}

// parseModified accepts the epoch either as a decimal string or a JSON number.
func parseModified(data json.RawMessage) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return 0, errors.New("missing modified time")
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0, err
		}
	}
	modified, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("modified time %s is not numeric", data)
	}
	return modified, nil
}

// Save writes the snapshot atomically: readers never observe a partial file.
func Save(c *Collection, path string) error {
	data, err := c.Serialize()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Deserialize(data)
}
