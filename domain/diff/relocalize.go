package diff

import (
	"crypto/sha256"
	"strings"
)

// DefaultFuzzyWindow is the scan window for hash-based relocalization.
const DefaultFuzzyWindow = 2000

// ExactRelocate finds the base byte-slice verbatim in the head source and
// returns its 1-based line interval there.
func ExactRelocate(baseSlice, headSrc string) (startLine, endLine int, ok bool) {
	idx := strings.Index(headSrc, baseSlice)
	if idx < 0 {
		return 0, 0, false
	}
	startLine = byteToLine(headSrc, idx)
	endLine = byteToLine(headSrc, idx+len(baseSlice)) - 1
	if endLine < startLine {
		endLine = startLine
	}
	return startLine, endLine, true
}

// FuzzyRelocate slides a window over the head source at quarter-window
// strides and compares window hashes against the base slice's hash. First
// match wins.
func FuzzyRelocate(baseSlice, headSrc string, window int) (startLine, endLine int, ok bool) {
	if window <= 0 {
		window = DefaultFuzzyWindow
	}
	baseHash := sha256.Sum256([]byte(baseSlice))

	stride := window / 4
	if stride < 1 {
		stride = 1
	}
	for s := 0; s <= len(headSrc)-window; s += stride {
		win := headSrc[s : s+window]
		if sha256.Sum256([]byte(win)) == baseHash {
			startLine = byteToLine(headSrc, s)
			endLine = byteToLine(headSrc, s+len(win)) - 1
			if endLine < startLine {
				endLine = startLine
			}
			return startLine, endLine, true
		}
	}
	return 0, 0, false
}

// byteToLine returns the 1-based line containing the byte offset.
func byteToLine(src string, off int) int {
	if off < 0 {
		off = 0
	}
	if off > len(src) {
		off = len(src)
	}
	return strings.Count(src[:off], "\n") + 1
}

// LineToByte returns the byte offset of the start of a 1-based line. Offsets
// past the last line clamp to the end of the source.
func LineToByte(src string, lineNo int) int {
	if lineNo <= 1 {
		return 0
	}
	idx := 0
	for cur := 1; cur < lineNo && idx < len(src); cur++ {
		nl := strings.Index(src[idx:], "\n")
		if nl < 0 {
			return len(src)
		}
		idx += nl + 1
	}
	return idx
}
