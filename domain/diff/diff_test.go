package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrag/gitrag/domain/chunk"
)

func TestTranslateShiftsPastHunk(t *testing.T) {
	r := chunk.NewRange(100, 120, 0, 0)
	hunks := []Hunk{NewHunk(10, 3, 10, 10)}

	out := Translate(r, hunks)

	assert.Equal(t, 107, out.StartLine())
	assert.Equal(t, 127, out.EndLine())
	assert.False(t, out.NeedsRelocalize())
}

func TestTranslateFlagsOverlap(t *testing.T) {
	r := chunk.NewRange(15, 20, 0, 0)
	hunks := []Hunk{NewHunk(18, 4, 18, 1)}

	out := Translate(r, hunks)

	assert.Equal(t, 15, out.StartLine())
	assert.Equal(t, 20, out.EndLine())
	assert.True(t, out.NeedsRelocalize())
}

func TestTranslateIdentityOnEmptyHunks(t *testing.T) {
	r := chunk.NewRange(5, 9, 40, 120)

	out := Translate(r, nil)

	assert.Equal(t, r, out)
}

func TestTranslateIgnoresHunkPastRange(t *testing.T) {
	r := chunk.NewRange(10, 20, 0, 0)
	hunks := []Hunk{NewHunk(50, 2, 50, 8)}

	out := Translate(r, hunks)

	assert.Equal(t, 10, out.StartLine())
	assert.Equal(t, 20, out.EndLine())
	assert.False(t, out.NeedsRelocalize())
}

func TestTranslatePureInsertionAbove(t *testing.T) {
	// Inserting 5 lines after base line 10 shifts later chunks down by 5.
	r := chunk.NewRange(30, 40, 0, 0)
	hunks := []Hunk{NewHunk(10, 0, 11, 5)}

	out := Translate(r, hunks)

	assert.Equal(t, 35, out.StartLine())
	assert.Equal(t, 45, out.EndLine())
	assert.False(t, out.NeedsRelocalize())
}

const sampleDiff = `diff --git a/app/main.py b/app/main.py
index 1111111..2222222 100644
--- a/app/main.py
+++ b/app/main.py
@@ -10,3 +10,10 @@ def handler():
+new line
@@ -42 +49 @@ def other():
-old
+new
diff --git a/app/gone.py b/app/gone.py
deleted file mode 100644
index 3333333..0000000
--- a/app/gone.py
+++ /dev/null
@@ -1,4 +0,0 @@
-a
-b
-c
-d
`

func TestParseUnifiedDiff(t *testing.T) {
	diffs := ParseUnifiedDiff(sampleDiff)
	require.Len(t, diffs, 2)

	first := diffs[0]
	assert.Equal(t, "app/main.py", first.Path())
	assert.False(t, first.IsDeleted())
	require.Len(t, first.Hunks(), 2)
	assert.Equal(t, NewHunk(10, 3, 10, 10), first.Hunks()[0])

	// Missing lengths default to 1.
	assert.Equal(t, NewHunk(42, 1, 49, 1), first.Hunks()[1])

	deleted := diffs[1]
	assert.True(t, deleted.IsDeleted())
	assert.Equal(t, "app/gone.py", deleted.Path())
	assert.Equal(t, "/dev/null", deleted.NewPath())
}

func TestParseUnifiedDiffDeletionWithoutHunks(t *testing.T) {
	text := strings.Join([]string{
		"diff --git a/assets/logo.png b/assets/logo.png",
		"deleted file mode 100644",
		"index 4444444..0000000",
		"Binary files a/assets/logo.png and /dev/null differ",
		"",
	}, "\n")

	diffs := ParseUnifiedDiff(text)

	require.Len(t, diffs, 1)
	assert.True(t, diffs[0].IsDeleted())
	assert.Equal(t, "assets/logo.png", diffs[0].Path())
	assert.Empty(t, diffs[0].Hunks())
}

func TestParseUnifiedDiffSkipsEmptyEntries(t *testing.T) {
	text := strings.Join([]string{
		"diff --git a/mode_only.sh b/mode_only.sh",
		"old mode 100644",
		"new mode 100755",
		"",
	}, "\n")

	assert.Empty(t, ParseUnifiedDiff(text))
	assert.Empty(t, ParseUnifiedDiff(""))
}

func TestParseUnifiedDiffRename(t *testing.T) {
	text := strings.Join([]string{
		"diff --git a/old/name.go b/new/name.go",
		"--- a/old/name.go",
		"+++ b/new/name.go",
		"@@ -1,2 +1,2 @@",
		"-x",
		"+y",
		"",
	}, "\n")

	diffs := ParseUnifiedDiff(text)

	require.Len(t, diffs, 1)
	assert.Equal(t, "new/name.go", diffs[0].Path())
	assert.Equal(t, "old/name.go", diffs[0].OldPath())
	assert.Equal(t, "new/name.go", diffs[0].NewPath())
}

func TestExactRelocate(t *testing.T) {
	head := "package a\n\nfunc moved() {\n\treturn\n}\n"
	slice := "func moved() {\n\treturn\n}\n"

	start, end, ok := ExactRelocate(slice, head)

	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)
}

func TestExactRelocateAbsent(t *testing.T) {
	_, _, ok := ExactRelocate("func gone()", "package a\n")
	assert.False(t, ok)
}

func TestFuzzyRelocate(t *testing.T) {
	slice := strings.Repeat("x", 7) + "\n" // 8 bytes
	head := "aaaaaaa\nbbbbbbb\n" + slice + "ccccccc\n"

	start, end, ok := FuzzyRelocate(slice, head, len(slice))

	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)
}

func TestFuzzyRelocateNoMatch(t *testing.T) {
	_, _, ok := FuzzyRelocate("not here at all!", strings.Repeat("y\n", 50), 16)
	assert.False(t, ok)
}

func TestLineToByte(t *testing.T) {
	src := "one\ntwo\nthree\n"

	assert.Equal(t, 0, LineToByte(src, 1))
	assert.Equal(t, 4, LineToByte(src, 2))
	assert.Equal(t, 8, LineToByte(src, 3))
	assert.Equal(t, len(src), LineToByte(src, 4))
	assert.Equal(t, len(src), LineToByte(src, 99))
}
