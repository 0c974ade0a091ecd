package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{
		"-c", "user.name=test",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false",
	}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// testRepo builds a repository with two commits touching src/app.py and
// returns the gateway plus both commit SHAs.
func testRepo(t *testing.T) (*CLI, string, string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	writeFile(t, dir, "src/app.py", "def main():\n    pass\n")
	writeFile(t, dir, "README.md", "# demo\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")

	cli, err := NewCLI(dir, nil)
	require.NoError(t, err)

	base, err := cli.Head(context.Background())
	require.NoError(t, err)

	writeFile(t, dir, "src/app.py", "def main():\n    print('hi')\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "change app")

	head, err := cli.Head(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, base, head)

	return cli, base, head
}

func TestNewCLI_Validation(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	_, err := NewCLI(filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, ErrRepoNotFound)

	_, err = NewCLI(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrNotGitRepo)
}

func TestRevParseAndListFiles(t *testing.T) {
	cli, base, head := testRepo(t)
	ctx := context.Background()

	sha, err := cli.RevParse(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, head, sha)
	assert.Len(t, sha, 40)

	files, err := cli.ListFiles(ctx, base)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/app.py", "README.md"}, files)

	files, err = cli.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, files, "src/app.py")
}

func TestShowFile(t *testing.T) {
	cli, base, head := testRepo(t)
	ctx := context.Background()

	content, ok, err := cli.ShowFile(ctx, base, "src/app.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "def main():\n    pass\n", content)

	content, ok, err = cli.ShowFile(ctx, head, "src/app.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, content, "print('hi')")

	// Working tree read.
	content, ok, err = cli.ShowFile(ctx, "", "src/app.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, content, "print('hi')")

	// Absent at ref is not an error.
	_, ok, err = cli.ShowFile(ctx, base, "src/other.py")
	require.NoError(t, err)
	assert.False(t, ok)

	// Absent from the working tree is not an error.
	_, ok, err = cli.ShowFile(ctx, "", "src/other.py")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShowFile_BinarySkipped(t *testing.T) {
	cli, _, _ := testRepo(t)
	ctx := context.Background()

	writeFile(t, cli.Path(), "blob.bin", "PK\x03\x04\x00\x00\x00\x00")
	runGit(t, cli.Path(), "add", "blob.bin")
	runGit(t, cli.Path(), "commit", "-q", "-m", "add binary")

	head, err := cli.Head(ctx)
	require.NoError(t, err)

	_, ok, err := cli.ShowFile(ctx, head, "blob.bin")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = cli.ShowFile(ctx, "", "blob.bin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiffUnifiedZero(t *testing.T) {
	cli, base, head := testRepo(t)

	diff, err := cli.DiffUnifiedZero(context.Background(), base, head)
	require.NoError(t, err)
	assert.Contains(t, diff, "diff --git a/src/app.py b/src/app.py")
	assert.Contains(t, diff, "@@")
	assert.NotContains(t, diff, "README.md")
}

func TestStatusAndDiffWorking(t *testing.T) {
	cli, _, head := testRepo(t)
	ctx := context.Background()

	out, err := cli.StatusPorcelain(ctx)
	require.NoError(t, err)
	assert.Empty(t, ParsePorcelain(out))

	writeFile(t, cli.Path(), "src/app.py", "def main():\n    return 1\n")

	out, err = cli.StatusPorcelain(ctx)
	require.NoError(t, err)
	entries := ParsePorcelain(out)
	require.Len(t, entries, 1)
	assert.Equal(t, "src/app.py", entries[0].Path)
	assert.Equal(t, StateModified, entries[0].State)

	diff, err := cli.DiffWorking(ctx, head, ChangedPaths(entries))
	require.NoError(t, err)
	assert.Contains(t, diff, "return 1")
	assert.Contains(t, diff, "@@")
}

func TestWorkspace(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	repoDir := filepath.Join(root, "demo")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))
	runGit(t, repoDir, "init", "-q")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-repo"), 0o755))

	ws := NewWorkspace(root)

	ids, err := ws.ListRepos()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, ids)

	path, err := ws.Resolve("demo")
	require.NoError(t, err)
	assert.Equal(t, repoDir, path)

	_, err = ws.Resolve("not-a-repo")
	assert.ErrorIs(t, err, ErrNotGitRepo)

	_, err = ws.Resolve("missing")
	assert.ErrorIs(t, err, ErrRepoNotFound)

	_, err = ws.Resolve("../etc")
	assert.ErrorIs(t, err, ErrRepoNotFound)
}
