package compare

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

type ReportOptions struct {
	ShowUnchanged  bool
	ShowDuplicates bool
}

func FormatReport(result *Diff, opts ReportOptions) string {
	var report strings.Builder

	if !result.HasChanges() {
		report.WriteString("No changes detected.\n")
	} else {
		report.WriteString("Changes detected:\n\n")
	}

	if len(result.Added) > 0 {
		fmt.Fprintf(&report, "ADDED (%d files):\n", len(result.Added))
		for _, change := range result.Added {
			fmt.Fprintf(&report, "  + %s (hash: %s)\n", change.Path, change.Right.Hash)
		}
		report.WriteString("\n")
	}

	if len(result.Modified) > 0 {
		fmt.Fprintf(&report, "MODIFIED (%d files):\n", len(result.Modified))
		for _, change := range result.Modified {
			fmt.Fprintf(&report, "  ~ %s\n", change.Path)
			fmt.Fprintf(&report, "    Old: hash=%s, modified=%s\n",
				change.Left.Hash, change.Left.ModTime().UTC().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(&report, "    New: hash=%s, modified=%s\n",
				change.Right.Hash, change.Right.ModTime().UTC().Format("2006-01-02 15:04:05"))
		}
		report.WriteString("\n")
	}

	if len(result.Removed) > 0 {
		fmt.Fprintf(&report, "REMOVED (%d files):\n", len(result.Removed))
		for _, change := range result.Removed {
			fmt.Fprintf(&report, "  - %s (hash: %s)\n", change.Path, change.Left.Hash)
		}
		report.WriteString("\n")
	}

	if opts.ShowUnchanged && len(result.Unchanged) > 0 {
		fmt.Fprintf(&report, "UNCHANGED (%d files):\n", len(result.Unchanged))
		for _, change := range result.Unchanged {
			fmt.Fprintf(&report, "  = %s\n", change.Path)
		}
		report.WriteString("\n")
	}

	if opts.ShowDuplicates {
		writeDuplicates(&report, "LEFT", result.DuplicatesLeft)
		writeDuplicates(&report, "RIGHT", result.DuplicatesRight)
	}

	s := result.Summary()
	fmt.Fprintf(&report, "Summary: %d added, %d modified, %d removed, %d unchanged\n",
		s.Added, s.Modified, s.Removed, s.Unchanged)

	return report.String()
}

func writeDuplicates(report *strings.Builder, side string, groups map[string][]string) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(report, "DUPLICATES %s (%d groups):\n", side, len(groups))
	report.WriteString(FormatDuplicates(groups))
	report.WriteString("\n")
}

// FormatDuplicates lists duplicate groups ordered by hash.
func FormatDuplicates(groups map[string][]string) string {
	var out strings.Builder
	for _, h := range slices.Sorted(maps.Keys(groups)) {
		fmt.Fprintf(&out, "  %s (%d files)\n", h, len(groups[h]))
		for _, p := range groups[h] {
			fmt.Fprintf(&out, "    %s\n", p)
		}
	}
	return out.String()
}

func WriteJSON(w io.Writer, result *Diff) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}
	return nil
}
