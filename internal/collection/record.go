package collection

import (
	"errors"
	"time"
)

var (
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrCorruptEntry      = errors.New("corrupt snapshot entry")
)

// Record is the content hash and modification time of one file.
// Only Hash takes part in content equality.
type Record struct {
	Hash     string `json:"hash"`
	Modified int64  `json:"modified"` // Unix seconds
}

// NewRecord truncates modTime to the second, the precision snapshots keep.
func NewRecord(hash string, modTime time.Time) Record {
	return Record{Hash: hash, Modified: modTime.Unix()}
}

func (r Record) ModTime() time.Time {
	return time.Unix(r.Modified, 0)
}

// SameContent reports whether r and other hash to the same content.
func (r Record) SameContent(other Record) bool {
	return r.Hash == other.Hash
}
