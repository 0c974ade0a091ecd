package git

import "strings"

// FileState classifies a working tree change for status reporting.
type FileState string

// Working tree change states.
const (
	StateModified FileState = "modified"
	StateAdded    FileState = "added"
	StateDeleted  FileState = "deleted"
	StateRenamed  FileState = "renamed"
)

// changeLetters are the porcelain status codes that count as content
// changes for incremental indexing.
const changeLetters = "MADRCUT"

// StatusEntry is one parsed line of porcelain status output.
type StatusEntry struct {
	Code    string
	Path    string
	OldPath string
	State   FileState
}

// ParsePorcelain parses `git status --porcelain` output. Lines whose
// two-letter code contains none of M/A/D/R/C/U/T are dropped. Rename and
// copy lines carry both sides of the `old -> new` arrow.
func ParsePorcelain(out string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		if !strings.ContainsAny(code, changeLetters) {
			continue
		}

		entry := StatusEntry{Code: code, Path: line[3:]}
		if old, newPath, ok := strings.Cut(entry.Path, " -> "); ok {
			entry.OldPath = old
			entry.Path = newPath
		}
		entry.State = classifyCode(code)
		entries = append(entries, entry)
	}
	return entries
}

func classifyCode(code string) FileState {
	switch {
	case strings.ContainsAny(code, "RC"):
		return StateRenamed
	case strings.Contains(code, "D"):
		return StateDeleted
	case strings.Contains(code, "A"):
		return StateAdded
	default:
		return StateModified
	}
}

// ChangedPaths returns the unique paths touched by the entries. Renames
// contribute both sides so a diff restricted to these paths sees the
// deletion and the addition.
func ChangedPaths(entries []StatusEntry) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, e := range entries {
		add(e.OldPath)
		add(e.Path)
	}
	return paths
}
