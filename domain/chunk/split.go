package chunk

import (
	"fmt"
	"strings"
)

// SplitOversize splits a chunk whose content exceeds maxChars into ordered
// parts at line boundaries. Each part carries a _partN suffix in its symbol
// (and therefore in its logical id) and its own content hash; all parts share
// the original's signature hash and block annotation. A chunk under the cap
// is returned unchanged as a single element.
func SplitOversize(c Chunk, maxChars int) []Chunk {
	if len(c.Content()) <= maxChars {
		return []Chunk{c}
	}

	pieces := splitAtLines(c.Content(), maxChars)

	out := make([]Chunk, 0, len(pieces))
	startLine := c.Range().StartLine()
	byteStart := c.Range().ByteStart()
	for i, piece := range pieces {
		lines := countLines(piece)
		endLine := startLine + lines - 1
		rng := NewRange(startLine, endLine, byteStart, byteStart+len(piece))

		part := NewChunk(
			c.RepoID(), c.Path(),
			fmt.Sprintf("%s_part%d", c.Symbol(), i+1),
			c.Language(), piece, c.SigHash(), rng,
		)
		if id, blockRng, ok := c.Block(); ok {
			part = part.WithBlock(id, blockRng)
		}
		out = append(out, part)

		startLine = endLine + 1
		byteStart += len(piece)
	}
	return out
}

// splitAtLines greedily packs whole lines into pieces of at most maxChars. A
// single line longer than the cap becomes its own piece.
func splitAtLines(content string, maxChars int) []string {
	var pieces []string
	var buf strings.Builder

	rest := content
	for len(rest) > 0 {
		nl := strings.IndexByte(rest, '\n')
		var line string
		if nl < 0 {
			line, rest = rest, ""
		} else {
			line, rest = rest[:nl+1], rest[nl+1:]
		}
		if buf.Len() > 0 && buf.Len()+len(line) > maxChars {
			pieces = append(pieces, buf.String())
			buf.Reset()
		}
		buf.WriteString(line)
	}
	if buf.Len() > 0 {
		pieces = append(pieces, buf.String())
	}
	return pieces
}

func countLines(s string) int {
	n := strings.Count(s, "\n")
	if n == 0 || !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
