// Package chunk provides domain types for logical code chunks: stable
// symbols, line/byte ranges, content identity, and deterministic point ids.
package chunk

// Range locates a chunk within its source file at one revision: a 1-based
// inclusive line interval plus a half-open byte interval. Immutable value
// object. The relocalize flag marks a range whose line interval overlapped a
// diff hunk and cannot be trusted until re-anchored.
type Range struct {
	startLine  int
	endLine    int
	byteStart  int
	byteEnd    int
	relocalize bool
}

// NewRange creates a Range with trusted positions.
func NewRange(startLine, endLine, byteStart, byteEnd int) Range {
	return Range{
		startLine: startLine,
		endLine:   endLine,
		byteStart: byteStart,
		byteEnd:   byteEnd,
	}
}

// StartLine returns the 1-based first line.
func (r Range) StartLine() int { return r.startLine }

// EndLine returns the 1-based last line.
func (r Range) EndLine() int { return r.endLine }

// ByteStart returns the inclusive byte offset of the range start.
func (r Range) ByteStart() int { return r.byteStart }

// ByteEnd returns the exclusive byte offset of the range end.
func (r Range) ByteEnd() int { return r.byteEnd }

// NeedsRelocalize reports whether the line interval is stale.
func (r Range) NeedsRelocalize() bool { return r.relocalize }

// Shifted returns a copy with both line endpoints moved by delta.
func (r Range) Shifted(delta int) Range {
	r.startLine += delta
	r.endLine += delta
	return r
}

// Flagged returns a copy with the relocalize flag set.
func (r Range) Flagged() Range {
	r.relocalize = true
	return r
}

// Anchored returns a copy re-anchored at the given line interval with the
// relocalize flag cleared. Byte offsets are kept; callers that know the new
// byte position should use Repositioned.
func (r Range) Anchored(startLine, endLine int) Range {
	r.startLine = startLine
	r.endLine = endLine
	r.relocalize = false
	return r
}

// Repositioned returns a copy with new line and byte positions and the
// relocalize flag cleared.
func (r Range) Repositioned(startLine, endLine, byteStart, byteEnd int) Range {
	return NewRange(startLine, endLine, byteStart, byteEnd)
}
