package compare

import (
	"dirdiff-go/internal/collection"
)

type ChangeType string

const (
	Added     ChangeType = "ADDED"
	Removed   ChangeType = "REMOVED"
	Modified  ChangeType = "MODIFIED"
	Unchanged ChangeType = "UNCHANGED"
)

// Change is one path's classification. Left is nil for Added paths and
// Right is nil for Removed ones.
type Change struct {
	Type  ChangeType         `json:"type"`
	Path  string             `json:"path"`
	Left  *collection.Record `json:"left,omitempty"`
	Right *collection.Record `json:"right,omitempty"`
}

// Diff classifies every path of two collections exactly once. The
// duplicate groups overlay that partition, one map per side.
type Diff struct {
	LeftRoot         string `json:"left_root"`
	RightRoot        string `json:"right_root"`
	LeftFingerprint  string `json:"left_fingerprint,omitempty"`
	RightFingerprint string `json:"right_fingerprint,omitempty"`

	Added     []Change `json:"added"`
	Removed   []Change `json:"removed"`
	Modified  []Change `json:"modified"`
	Unchanged []Change `json:"unchanged"`

	DuplicatesLeft  map[string][]string `json:"duplicates_left"`
	DuplicatesRight map[string][]string `json:"duplicates_right"`
}

func (d *Diff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Modified) > 0 || len(d.Removed) > 0
}

type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

func (d *Diff) Summary() Summary {
	return Summary{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Modified:  len(d.Modified),
		Unchanged: len(d.Unchanged),
	}
}

// Compare classifies the paths of left and right by content hash alone.
// Neither input is modified; roots, algorithms and timestamps never affect
// the classification. Categories come out sorted by path.
func Compare(left, right *collection.Collection) *Diff {
	result := &Diff{
		LeftRoot:        left.Root(),
		RightRoot:       right.Root(),
		Added:           make([]Change, 0),
		Removed:         make([]Change, 0),
		Modified:        make([]Change, 0),
		Unchanged:       make([]Change, 0),
		DuplicatesLeft:  left.Duplicates(),
		DuplicatesRight: right.Duplicates(),
	}

	// Removed, modified and unchanged: every left path once
	for _, path := range left.Paths() {
		leftData, _ := left.Get(path)
		rightData, exists := right.Get(path)
		if !exists {
			result.Removed = append(result.Removed, Change{
				Type: Removed,
				Path: path,
				Left: &leftData,
			})
			continue
		}

		change := Change{Path: path, Left: &leftData, Right: &rightData}
		if leftData.SameContent(rightData) {
			change.Type = Unchanged
			result.Unchanged = append(result.Unchanged, change)
		} else {
			change.Type = Modified
			result.Modified = append(result.Modified, change)
		}
	}

	// Added: right paths the left side lacks
	for _, path := range right.Paths() {
		if _, exists := left.Get(path); exists {
			continue
		}
		rightData, _ := right.Get(path)
		result.Added = append(result.Added, Change{
			Type:  Added,
			Path:  path,
			Right: &rightData,
		})
	}

	// Fingerprints are informational; a failure leaves them empty
	if fp, err := left.Fingerprint(); err == nil {
		result.LeftFingerprint = fp
	}
	if fp, err := right.Fingerprint(); err == nil {
		result.RightFingerprint = fp
	}

	return result
}
