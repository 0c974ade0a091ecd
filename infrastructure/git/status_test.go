package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePorcelain(t *testing.T) {
	out := " M src/app.py\n" +
		"A  src/new.py\n" +
		" D old/gone.py\n" +
		"R  src/a.py -> src/b.py\n" +
		"?? scratch.txt\n" +
		"\n"

	entries := ParsePorcelain(out)
	require.Len(t, entries, 4)

	assert.Equal(t, "src/app.py", entries[0].Path)
	assert.Equal(t, StateModified, entries[0].State)

	assert.Equal(t, "src/new.py", entries[1].Path)
	assert.Equal(t, StateAdded, entries[1].State)

	assert.Equal(t, "old/gone.py", entries[2].Path)
	assert.Equal(t, StateDeleted, entries[2].State)

	assert.Equal(t, "src/b.py", entries[3].Path)
	assert.Equal(t, "src/a.py", entries[3].OldPath)
	assert.Equal(t, StateRenamed, entries[3].State)
}

func TestParsePorcelain_UntrackedIgnored(t *testing.T) {
	assert.Empty(t, ParsePorcelain("?? a.txt\n?? b.txt\n"))
}

func TestChangedPaths(t *testing.T) {
	entries := ParsePorcelain(" M a.py\nR  b.py -> c.py\n M a.py\n")

	paths := ChangedPaths(entries)
	assert.Equal(t, []string{"a.py", "b.py", "c.py"}, paths)
}
