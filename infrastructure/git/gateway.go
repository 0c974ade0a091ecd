// Package git provides a read-mostly gateway over a local git repository,
// backed by Gitea's git module (native git binary).
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	giteagit "code.gitea.io/gitea/modules/git"
	"code.gitea.io/gitea/modules/git/gitcmd"
	"code.gitea.io/gitea/modules/setting"
)

// ErrNotGitRepo indicates the path exists but is not a git work tree.
var ErrNotGitRepo = errors.New("not a git repository")

// ErrRepoNotFound indicates the repository directory does not exist.
var ErrRepoNotFound = errors.New("repository not found")

// Gateway is the read surface the indexer and retriever need from git.
type Gateway interface {
	Path() string
	Head(ctx context.Context) (string, error)
	RevParse(ctx context.Context, ref string) (string, error)
	ListFiles(ctx context.Context, ref string) ([]string, error)
	ShowFile(ctx context.Context, ref string, path string) (string, bool, error)
	DiffUnifiedZero(ctx context.Context, base string, head string) (string, error)
	DiffWorking(ctx context.Context, base string, paths []string) (string, error)
	StatusPorcelain(ctx context.Context) (string, error)
}

// CLI implements Gateway by shelling out through Gitea's gitcmd module.
type CLI struct {
	path   string
	logger *slog.Logger
}

var gitInitOnce sync.Once
var gitInitErr error

func initGitModule() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is not installed or not in PATH: install git and try again")
	}

	gitInitOnce.Do(func() {
		// Gitea's git module requires a HomePath for its git environment.
		// Use a temporary directory so git config is isolated.
		home, err := os.MkdirTemp("", "gitrag-git-home-*")
		if err != nil {
			gitInitErr = fmt.Errorf("create git home directory: %w", err)
			return
		}
		setting.Git.HomePath = home

		gitInitErr = giteagit.InitSimple()
	})
	return gitInitErr
}

// NewCLI creates a gateway for the repository at path. The path is
// normalized to absolute, verified to be a git work tree, and registered
// as a safe.directory so commands work across ownership boundaries.
func NewCLI(path string, logger *slog.Logger) (*CLI, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := initGitModule(); err != nil {
		return nil, fmt.Errorf("init git: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}

	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, abs)
	}
	if _, err := os.Stat(filepath.Join(abs, ".git")); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, abs)
	}

	// The HomePath above keeps this out of the user's real global config.
	_, _, err = gitcmd.NewCommand("config", "--global", "--add", "safe.directory").
		AddDynamicArguments(abs).
		RunStdString(context.Background(), &gitcmd.RunOpts{Dir: abs})
	if err != nil {
		logger.Debug("register safe.directory failed", slog.String("error", err.Error()))
	}

	return &CLI{path: abs, logger: logger}, nil
}

// Path returns the absolute repository path.
func (c *CLI) Path() string { return c.path }

// Head returns the commit SHA of HEAD.
func (c *CLI) Head(ctx context.Context) (string, error) {
	return c.RevParse(ctx, "HEAD")
}

// RevParse resolves a ref to a full commit SHA.
func (c *CLI) RevParse(ctx context.Context, ref string) (string, error) {
	stdout, _, err := gitcmd.NewCommand("rev-parse").
		AddDynamicArguments(ref).
		RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	if err != nil {
		return "", fmt.Errorf("rev-parse %s: %w", ref, err)
	}
	return strings.TrimSpace(stdout), nil
}

// ListFiles returns the tracked file paths at ref, or in the index when
// ref is empty.
func (c *CLI) ListFiles(ctx context.Context, ref string) ([]string, error) {
	var stdout string
	var err error
	if ref == "" {
		stdout, _, err = gitcmd.NewCommand("ls-files").
			RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	} else {
		stdout, _, err = gitcmd.NewCommand("ls-tree", "-r", "--name-only").
			AddDynamicArguments(ref).
			RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	}
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// ShowFile returns the text content of path at ref, or from the working
// tree when ref is empty. The bool reports presence: a file absent at the
// ref, or detected as binary, yields ("", false, nil).
func (c *CLI) ShowFile(ctx context.Context, ref string, path string) (string, bool, error) {
	if ref == "" {
		data, err := os.ReadFile(filepath.Join(c.path, filepath.FromSlash(path)))
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("read working tree file %s: %w", path, err)
		}
		if IsProbablyBinary(data) {
			return "", false, nil
		}
		return string(data), true, nil
	}

	stdout, _, err := gitcmd.NewCommand("show").
		AddDynamicArguments(ref + ":" + path).
		RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	if err != nil {
		if isAbsentAtRef(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("show %s at %s: %w", path, ref, err)
	}
	if IsProbablyBinary([]byte(stdout)) {
		return "", false, nil
	}
	return stdout, true, nil
}

// isAbsentAtRef distinguishes "path not in this ref" from real failures by
// git's error text, which is the only signal the CLI gives.
func isAbsentAtRef(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "exists on disk, but not in") {
		return true
	}
	return strings.Contains(msg, "does not exist") && strings.Contains(msg, "fatal: path")
}

// DiffUnifiedZero returns a zero-context unified diff between two commits.
func (c *CLI) DiffUnifiedZero(ctx context.Context, base string, head string) (string, error) {
	stdout, _, err := gitcmd.NewCommand("diff",
		"--unified=0", "--ignore-blank-lines", "--ignore-space-at-eol", "--no-color").
		AddDynamicArguments(base + ".." + head).
		RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	if err != nil {
		return "", fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	return stdout, nil
}

// DiffWorking returns a zero-context unified diff from base to the working
// tree, restricted to the given paths.
func (c *CLI) DiffWorking(ctx context.Context, base string, paths []string) (string, error) {
	cmd := gitcmd.NewCommand("diff",
		"--unified=0", "--ignore-blank-lines", "--ignore-space-at-eol", "--no-color").
		AddDynamicArguments(base)
	if len(paths) > 0 {
		cmd = cmd.AddDashesAndList(paths...)
	}

	stdout, _, err := cmd.RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	if err != nil {
		return "", fmt.Errorf("diff %s..working: %w", base, err)
	}
	return stdout, nil
}

// StatusPorcelain returns porcelain status output for tracked files only.
func (c *CLI) StatusPorcelain(ctx context.Context) (string, error) {
	stdout, _, err := gitcmd.NewCommand("status", "--porcelain", "--untracked-files=no").
		RunStdString(ctx, &gitcmd.RunOpts{Dir: c.path})
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	return stdout, nil
}

// Ensure CLI implements Gateway.
var _ Gateway = (*CLI)(nil)
