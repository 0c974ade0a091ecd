package diff

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

const devNull = "/dev/null"

var (
	gitHeaderRe = regexp.MustCompile(`^diff --git a/(.+?) b/(.+)$`)
	hunkRe      = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// fileState accumulates one file's diff while scanning.
type fileState struct {
	path      string
	oldPath   string
	newPath   string
	hunks     []Hunk
	isDeleted bool
}

func (s *fileState) finalize() (FileDiff, bool) {
	if s.newPath == devNull {
		s.isDeleted = true
	}
	if s.isDeleted && s.oldPath != "" {
		s.path = s.oldPath
	}
	if s.path == "" || (len(s.hunks) == 0 && !s.isDeleted) {
		return FileDiff{}, false
	}
	return NewFileDiff(s.path, s.oldPath, s.newPath, s.hunks, s.isDeleted), true
}

// ParseUnifiedDiff parses git unified-diff output into FileDiffs. It is
// tolerant of the quirks git emits in practice:
//   - paths come from the `diff --git a/X b/Y` header when present, the
//     ---/+++ lines otherwise
//   - `deleted file mode` may appear before any ---/+++ lines
//   - pure deletions with no hunks still yield a FileDiff, with the old
//     path as canonical
//   - hunk headers with a missing length default it to 1
//
// Entries with neither hunks nor a deletion marker are dropped.
func ParseUnifiedDiff(text string) []FileDiff {
	var diffs []FileDiff
	var current *fileState
	var parsedOld, parsedNew string
	deleted := false

	flush := func() {
		if current == nil {
			return
		}
		current.isDeleted = current.isDeleted || deleted
		if fd, ok := current.finalize(); ok {
			diffs = append(diffs, fd)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			parsedOld, parsedNew = "", ""
			deleted = false
			if m := gitHeaderRe.FindStringSubmatch(line); m != nil {
				parsedOld, parsedNew = m[1], m[2]
			}

		case strings.HasPrefix(line, "--- a/"):
			oldPath := strings.TrimSpace(line[6:])
			if parsedOld == "" {
				parsedOld = oldPath
			}
			if deleted && current == nil {
				current = &fileState{path: parsedOld, oldPath: parsedOld, newPath: devNull, isDeleted: true}
			}

		case strings.HasPrefix(line, "+++ "):
			newPath := strings.TrimSpace(strings.TrimPrefix(line[4:], "b/"))
			if parsedNew == "" && newPath != devNull {
				parsedNew = newPath
			}
			if current == nil {
				if newPath == devNull {
					path := parsedOld
					if path == "" {
						path = devNull
					}
					current = &fileState{path: path, oldPath: parsedOld, newPath: devNull, isDeleted: true}
				} else {
					current = &fileState{path: newPath, oldPath: parsedOld, newPath: newPath}
				}
			} else {
				current.newPath = newPath
				if current.oldPath == "" {
					current.oldPath = parsedOld
				}
			}

		case strings.HasPrefix(line, "deleted file mode"):
			deleted = true
			if current == nil {
				path := parsedOld
				if path == "" {
					path = parsedNew
				}
				if path != "" {
					current = &fileState{path: path, oldPath: parsedOld, newPath: devNull, isDeleted: true}
				}
			} else {
				current.isDeleted = true
			}

		case strings.HasPrefix(line, "@@ ") && current != nil:
			if m := hunkRe.FindStringSubmatch(line); m != nil {
				current.hunks = append(current.hunks, NewHunk(
					atoiDefault(m[1], 0),
					atoiDefault(m[2], 1),
					atoiDefault(m[3], 0),
					atoiDefault(m[4], 1),
				))
			}
		}
	}

	flush()
	return diffs
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
