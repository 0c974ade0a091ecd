package diff

import "github.com/gitrag/gitrag/domain/chunk"

// Translate maps a base-revision range through a file's hunks. Hunks that
// end at or before the range shift both endpoints by their delta; a hunk
// overlapping the range leaves the endpoints untouched and flags the range
// for relocalization; hunks past the range are ignored. Unified diff emits
// hunks disjoint and ascending by base line, so the result is deterministic.
func Translate(r chunk.Range, hunks []Hunk) chunk.Range {
	start, end := r.StartLine(), r.EndLine()
	relocalize := r.NeedsRelocalize()

	for _, h := range hunks {
		baseEnd := h.BaseStart() + h.BaseLen()
		switch {
		case baseEnd <= start:
			start += h.Delta()
			end += h.Delta()
		case h.BaseStart() < end && baseEnd > start:
			relocalize = true
		}
	}

	out := chunk.NewRange(start, end, r.ByteStart(), r.ByteEnd())
	if relocalize {
		out = out.Flagged()
	}
	return out
}
