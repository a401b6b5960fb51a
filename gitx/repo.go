// Package gitx holds the read-only go-git queries shared by the worktree
// picker: opening a checkout, locating its administrative directory and
// reading HEAD.
package gitx

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

var ErrCannotResolveRepository = errors.New("cannot resolve repository")

// Layout describes where a repository lives on disk.
type Layout struct {
	// Root is the working directory of the main checkout.
	Root string
	// CommonDir is the git directory shared by all worktrees.
	CommonDir string
}

// Open opens the checkout containing path. Linked worktrees share refs and
// objects with the main repository through their commondir file.
func Open(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// AdminDir returns the git directory backing repo: <root>/.git for the main
// checkout and <root>/.git/worktrees/<name> for a linked worktree.
func AdminDir(repo *git.Repository) (string, error) {
	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", fmt.Errorf("%w: storage is not on disk", ErrCannotResolveRepository)
	}
	root := strings.TrimSpace(storage.Filesystem().Root())
	if root == "" {
		return "", fmt.Errorf("%w: empty git directory", ErrCannotResolveRepository)
	}
	return filepath.Clean(root), nil
}

// ResolveLayout derives the main checkout from an administrative directory.
func ResolveLayout(adminDir string) Layout {
	adminDir = filepath.Clean(adminDir)
	parent := filepath.Dir(adminDir)
	if filepath.Base(parent) == "worktrees" {
		common := filepath.Dir(parent)
		return Layout{Root: filepath.Dir(common), CommonDir: common}
	}
	return Layout{Root: filepath.Dir(adminDir), CommonDir: adminDir}
}

// LayoutOf opens the checkout containing path and resolves its layout.
func LayoutOf(path string) (Layout, error) {
	repo, err := Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrCannotResolveRepository, err)
	}
	admin, err := AdminDir(repo)
	if err != nil {
		return Layout{}, err
	}
	return ResolveLayout(admin), nil
}

// IsLinked reports whether the layout's administrative directory belongs to
// a linked worktree rather than the main checkout.
func IsLinked(adminDir string) bool {
	return filepath.Base(filepath.Dir(filepath.Clean(adminDir))) == "worktrees"
}

// HeadCommit resolves the commit HEAD points at.
func HeadCommit(repo *git.Repository) (*object.Commit, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	return repo.CommitObject(head.Hash())
}

// Summary returns the first line of a commit message.
func Summary(c *object.Commit) string {
	msg := strings.TrimSpace(c.Message)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}
	if msg == "" {
		return "No message"
	}
	return msg
}

// ShortHash abbreviates a commit id to seven characters.
func ShortHash(c *object.Commit) string {
	s := c.Hash.String()
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
