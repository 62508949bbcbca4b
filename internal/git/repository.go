// Package git is the version-control collaborator: it reads the staged diff
// and branch, and creates commits. Reads go through go-git; writes go through
// the git CLI so hooks, signing and user configuration apply.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"

	"github.com/gitsensei/sensei/pkg/models"
)

// Repository is a git working tree
type Repository struct {
	path string
	repo *gitlib.Repository
}

// Open finds the repository containing repoPath
func Open(repoPath string) (*Repository, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repository{path: root, repo: repo}, nil
}

// Path returns the working tree root
func (r *Repository) Path() string {
	return r.path
}

// HasStagedChanges reports whether the index differs from HEAD
func (r *Repository) HasStagedChanges(ctx context.Context) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	for path, st := range status {
		if st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked {
			zerolog.Ctx(ctx).Debug().Str("path", path).Str("staging", string(st.Staging)).Msg("Found staged change")
			return true, nil
		}
	}
	return false, nil
}

// CurrentBranchName returns the short name of the checked-out branch, or ""
// when HEAD is detached. An unborn branch still has a name.
func (r *Repository) CurrentBranchName(ctx context.Context) (string, error) {
	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if ref.Type() != plumbing.SymbolicReference {
		zerolog.Ctx(ctx).Debug().Str("head", ref.Hash().String()).Msg("HEAD is detached")
		return "", nil
	}
	return ref.Target().Short(), nil
}

// StagedDiff returns the unified diff of the index against HEAD
func (r *Repository) StagedDiff(ctx context.Context) (string, error) {
	return r.run(ctx, nil, "diff", "--staged", "--no-color", "--no-ext-diff")
}

// Commit creates a commit with message and returns its id. The message goes
// through stdin so it is never re-parsed by a shell or by git's -m handling.
func (r *Repository) Commit(ctx context.Context, message string) (string, error) {
	if _, err := r.run(ctx, strings.NewReader(message), "commit", "--file", "-", "--cleanup", "whitespace"); err != nil {
		return "", err
	}
	out, err := r.run(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes the current branch to its upstream
func (r *Repository) Push(ctx context.Context) error {
	_, err := r.run(ctx, nil, "push")
	return err
}

func (r *Repository) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmdArgs := append([]string{"-C", r.path}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().Strs("args", args).Msg("Running git")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("exit status %d", exitErr.ExitCode())
		}
		return "", &models.CommandError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}
