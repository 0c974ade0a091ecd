// Package diff provides the diff model for incremental indexing: parsed
// unified diffs, line-range translation across hunks, and relocalization of
// unchanged chunks whose byte-slice moved.
package diff

// Hunk is one aligned change region of a unified diff. Immutable value
// object; lengths are in base/head lines.
type Hunk struct {
	baseStart int
	baseLen   int
	headStart int
	headLen   int
}

// NewHunk creates a Hunk.
func NewHunk(baseStart, baseLen, headStart, headLen int) Hunk {
	return Hunk{
		baseStart: baseStart,
		baseLen:   baseLen,
		headStart: headStart,
		headLen:   headLen,
	}
}

// BaseStart returns the first affected base line.
func (h Hunk) BaseStart() int { return h.baseStart }

// BaseLen returns the number of affected base lines.
func (h Hunk) BaseLen() int { return h.baseLen }

// HeadStart returns the first affected head line.
func (h Hunk) HeadStart() int { return h.headStart }

// HeadLen returns the number of affected head lines.
func (h Hunk) HeadLen() int { return h.headLen }

// Delta returns the net line shift this hunk applies to everything below it.
func (h Hunk) Delta() int { return h.headLen - h.baseLen }

// FileDiff is the parsed change set for one file. For deletions the
// canonical Path is the old ("a") side.
type FileDiff struct {
	path      string
	oldPath   string
	newPath   string
	hunks     []Hunk
	isDeleted bool
}

// NewFileDiff creates a FileDiff.
func NewFileDiff(path, oldPath, newPath string, hunks []Hunk, isDeleted bool) FileDiff {
	copied := make([]Hunk, len(hunks))
	copy(copied, hunks)
	return FileDiff{
		path:      path,
		oldPath:   oldPath,
		newPath:   newPath,
		hunks:     copied,
		isDeleted: isDeleted,
	}
}

// Path returns the canonical path of the changed file.
func (d FileDiff) Path() string { return d.path }

// OldPath returns the "a" side path, when known.
func (d FileDiff) OldPath() string { return d.oldPath }

// NewPath returns the "b" side path, or "/dev/null" for deletions.
func (d FileDiff) NewPath() string { return d.newPath }

// Hunks returns the file's hunks in base-line order.
func (d FileDiff) Hunks() []Hunk {
	out := make([]Hunk, len(d.hunks))
	copy(out, d.hunks)
	return out
}

// IsDeleted reports whether the file was removed.
func (d FileDiff) IsDeleted() bool { return d.isDeleted }
