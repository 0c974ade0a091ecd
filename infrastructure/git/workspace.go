package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace locates repositories by id under a single parent directory.
// A repository id is its directory name.
type Workspace struct {
	reposDir string
}

// NewWorkspace creates a Workspace rooted at reposDir.
func NewWorkspace(reposDir string) Workspace {
	return Workspace{reposDir: reposDir}
}

// ReposDir returns the workspace root.
func (w Workspace) ReposDir() string { return w.reposDir }

// ListRepos returns the ids of all git repositories directly under the
// workspace root. Non-git directories and hidden directories are skipped.
func (w Workspace) ListRepos() ([]string, error) {
	entries, err := os.ReadDir(w.reposDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read repos dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(w.reposDir, entry.Name(), ".git")); err != nil {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

// Resolve maps a repository id to its path, rejecting ids that would
// escape the workspace root. The path must exist and be a git work tree.
func (w Workspace) Resolve(repoID string) (string, error) {
	if repoID == "" || repoID == "." || repoID == ".." ||
		strings.ContainsAny(repoID, `/\`) {
		return "", fmt.Errorf("%w: invalid repo id %q", ErrRepoNotFound, repoID)
	}

	path := filepath.Join(w.reposDir, repoID)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRepoNotFound, repoID)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotGitRepo, path)
	}
	return path, nil
}
