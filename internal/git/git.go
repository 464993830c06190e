// Package git wraps the git CLI for worktree, branch, and repository queries.
// All commands run through an injectable executor so tests can use a mock.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	groveerrors "github.com/zhubert/grove/internal/errors"
	pexec "github.com/zhubert/grove/internal/exec"
	"github.com/zhubert/grove/internal/logger"
)

// Client runs git commands against one repository.
type Client struct {
	root     string
	executor pexec.CommandExecutor
	log      *slog.Logger
}

// NewClient returns a Client for the repository rooted at root.
func NewClient(root string) *Client {
	return NewClientWithExecutor(root, pexec.NewRealExecutor())
}

// NewClientWithExecutor returns a Client using the given executor.
// This is primarily used for testing.
func NewClientWithExecutor(root string, executor pexec.CommandExecutor) *Client {
	return &Client{
		root:     root,
		executor: executor,
		log:      logger.ComponentLogger("git"),
	}
}

// Root returns the repository root the client operates on.
func (c *Client) Root() string {
	return c.root
}

// CreateWorktree adds a worktree at path for branch. When createBranch is set
// the branch is created by the same command, started from base when base is
// not empty; otherwise the existing branch is checked out.
func (c *Client) CreateWorktree(ctx context.Context, path, branch, base string, createBranch bool) error {
	args := []string{"worktree", "add"}
	if createBranch {
		args = append(args, "-b", branch, path)
		if base != "" {
			args = append(args, base)
		}
	} else {
		args = append(args, path, branch)
	}

	c.log.Debug("Creating worktree", "branch", branch, "path", path, "newBranch", createBranch, "base", base)
	output, err := c.executor.CombinedOutput(ctx, c.root, "git", args...)
	if err != nil {
		c.log.Error("Worktree creation failed", "branch", branch, "output", strings.TrimSpace(string(output)))
		return groveerrors.E(groveerrors.Op("git.CreateWorktree"), groveerrors.KindGit,
			fmt.Sprintf("failed to create worktree: %s", strings.TrimSpace(string(output))), err)
	}
	c.log.Info("Worktree created", "branch", branch, "path", path)
	return nil
}

// RemoveWorktree removes the worktree at path, then prunes stale worktree
// references (best-effort).
func (c *Client) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}

	c.log.Debug("Removing worktree", "path", path, "force", force)
	output, err := c.executor.CombinedOutput(ctx, c.root, "git", args...)
	if err != nil {
		c.log.Error("Worktree removal failed", "path", path, "output", strings.TrimSpace(string(output)))
		return groveerrors.E(groveerrors.Op("git.RemoveWorktree"), groveerrors.KindGit,
			fmt.Sprintf("failed to remove worktree: %s", strings.TrimSpace(string(output))), err)
	}

	if output, err := c.executor.CombinedOutput(ctx, c.root, "git", "worktree", "prune"); err != nil {
		c.log.Warn("Worktree prune failed", "output", strings.TrimSpace(string(output)), "error", err)
	}

	c.log.Info("Worktree removed", "path", path)
	return nil
}

// BranchExists reports whether branch exists locally or on origin.
func (c *Client) BranchExists(ctx context.Context, branch string) bool {
	_, _, err := c.executor.Run(ctx, c.root, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	if err == nil {
		return true
	}
	_, _, err = c.executor.Run(ctx, c.root, "git", "show-ref", "--verify", "--quiet", "refs/remotes/origin/"+branch)
	return err == nil
}

// IsDirty reports whether the worktree at path has uncommitted changes,
// including untracked files.
func (c *Client) IsDirty(ctx context.Context, path string) (bool, error) {
	output, err := c.executor.Output(ctx, path, "git", "status", "--porcelain")
	if err != nil {
		return false, groveerrors.E(groveerrors.Op("git.IsDirty"), groveerrors.KindGit,
			fmt.Sprintf("failed to check status of %s", path), err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// DeleteBranch deletes a local branch. force uses -D, which discards commits
// not merged anywhere else.
func (c *Client) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}

	output, err := c.executor.CombinedOutput(ctx, c.root, "git", "branch", flag, branch)
	if err != nil {
		c.log.Warn("Branch deletion failed", "branch", branch, "output", strings.TrimSpace(string(output)))
		return groveerrors.E(groveerrors.Op("git.DeleteBranch"), groveerrors.KindGit,
			fmt.Sprintf("failed to delete branch %s: %s", branch, strings.TrimSpace(string(output))), err)
	}
	c.log.Debug("Branch deleted", "branch", branch)
	return nil
}

// RepoName returns the repository name from the origin URL, falling back to
// the root directory name for repos without a remote.
func (c *Client) RepoName(ctx context.Context) string {
	output, err := c.executor.Output(ctx, c.root, "git", "remote", "get-url", "origin")
	if err == nil {
		url := strings.TrimSpace(string(output))
		if name := strings.TrimSuffix(filepath.Base(url), ".git"); name != "" && name != "." {
			return name
		}
	}
	return filepath.Base(c.root)
}

// FindRoot locates the main repository root for dir. Inside a linked worktree
// it resolves to the main checkout, not the worktree.
func FindRoot(ctx context.Context, dir string) (string, error) {
	executor := pexec.NewRealExecutor()

	output, err := executor.Output(ctx, dir, "git", "rev-parse", "--git-common-dir")
	if err != nil {
		return "", groveerrors.RootDetectionFailed(err)
	}

	gitDir := strings.TrimSpace(string(output))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}

	// The common dir is <root>/.git; the root is its parent.
	return filepath.Dir(filepath.Clean(gitDir)), nil
}

// Slug converts a branch name into a filesystem-safe environment id:
// lowercase, with / and _ replaced by hyphens.
func Slug(branch string) string {
	s := strings.ReplaceAll(branch, "/", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(s)
}
