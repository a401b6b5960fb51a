// Package removal tears down a linked worktree: its directory, its
// administrative entry and its local branch.
package removal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/mrbonezy/wtm/gitx"
	"github.com/mrbonezy/wtm/lock"
	"go.uber.org/zap"
)

var (
	ErrMainCheckout = errors.New("refusing to remove the main checkout")
	ErrNotWorktree  = errors.New("path is not a worktree root")
	ErrAborted      = errors.New("removal aborted")
)

var removeAll = os.RemoveAll

// Remover runs the removal steps in order. Completed steps are not undone
// when a later step fails, so a failure can leave the directory gone while
// the administrative entry or branch remain.
type Remover struct {
	// Locks, when set, serializes removals of the same worktree.
	Locks *lock.Manager
	// Confirm, when set, is asked before anything is deleted.
	Confirm func(branch string, path string) (bool, error)
	Stderr  io.Writer
	Log     *zap.Logger
}

func (r Remover) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func (r Remover) log() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}

func (r Remover) Remove(branch string, path string) error {
	path = filepath.Clean(path)
	repo, err := gitx.Open(path)
	if err != nil {
		return fmt.Errorf("open worktree %s: %w", path, err)
	}
	if err := checkWorktreeRoot(repo, path); err != nil {
		return err
	}
	admin, err := gitx.AdminDir(repo)
	if err != nil {
		return fmt.Errorf("resolve main repository: %w", err)
	}
	if !gitx.IsLinked(admin) {
		return fmt.Errorf("%w: %s", ErrMainCheckout, path)
	}
	layout := gitx.ResolveLayout(admin)

	if r.Confirm != nil {
		ok, err := r.Confirm(branch, path)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}
	if r.Locks != nil {
		l, err := r.Locks.Acquire(layout.CommonDir, path)
		if err != nil {
			return err
		}
		defer l.Release()
	}

	fmt.Fprintf(r.stderr(), "Removing worktree: %s (%s)\n", branch, path)
	if err := removeAll(path); err != nil {
		return fmt.Errorf("remove worktree directory: %w", err)
	}
	r.log().Debug("removed worktree directory", zap.String("path", path))

	if err := removeAdminEntry(admin); err != nil {
		return fmt.Errorf("remove worktree metadata: %w", err)
	}

	mainRepo, err := gitx.Open(layout.Root)
	if err != nil {
		return fmt.Errorf("open main repository %s: %w", layout.Root, err)
	}
	deleted, err := deleteBranch(mainRepo, branch)
	if err != nil {
		return fmt.Errorf("delete branch %s: %w", branch, err)
	}
	if deleted {
		fmt.Fprintf(r.stderr(), "Deleted branch: %s\n", branch)
	}
	return nil
}

func checkWorktreeRoot(repo *git.Repository, path string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree %s: %w", path, err)
	}
	root := filepath.Clean(wt.Filesystem.Root())
	if root != path {
		return fmt.Errorf("%w: %s (checkout root is %s)", ErrNotWorktree, path, root)
	}
	return nil
}

// removeAdminEntry deletes <common dir>/worktrees/<name>. It is already
// gone when git pruned it first.
func removeAdminEntry(admin string) error {
	if _, err := os.Stat(admin); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return removeAll(admin)
}

// deleteBranch removes refs/heads/<branch> and its config section. It
// reports whether a branch existed.
func deleteBranch(repo *git.Repository, branch string) (bool, error) {
	if branch == "" {
		return false, nil
	}
	name := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Storer.Reference(name); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := repo.Storer.RemoveReference(name); err != nil {
		return false, err
	}
	if err := repo.DeleteBranch(branch); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return true, err
	}
	return true, nil
}
