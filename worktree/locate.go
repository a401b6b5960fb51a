// Package worktree discovers the worktrees of a repository and turns them
// into selectable records.
package worktree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrbonezy/wtm/gitx"
	"go.uber.org/zap"
)

// Ref identifies one checkout of the repository.
type Ref struct {
	Branch string
	Path   string
}

// Locate finds the main repository reachable from dir and lists the main
// checkout followed by every linked worktree. Checkouts whose HEAD does not
// resolve and admin entries that no longer point anywhere are left out.
func Locate(dir string, log *zap.Logger) ([]Ref, error) {
	if log == nil {
		log = zap.NewNop()
	}
	layout, err := gitx.LayoutOf(dir)
	if err != nil {
		return nil, err
	}
	mainRepo, err := gitx.Open(layout.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", gitx.ErrCannotResolveRepository, layout.Root, err)
	}
	var refs []Ref
	if head, err := mainRepo.Head(); err == nil {
		refs = append(refs, Ref{Branch: head.Name().Short(), Path: layout.Root})
	} else {
		log.Debug("skipping main checkout with unresolvable HEAD", zap.String("path", layout.Root), zap.Error(err))
	}

	adminRoot := filepath.Join(layout.CommonDir, "worktrees")
	entries, err := os.ReadDir(adminRoot)
	if errors.Is(err, os.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list worktrees: %v", gitx.ErrCannotResolveRepository, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path, err := readWorktreePath(filepath.Join(adminRoot, entry.Name()))
		if err != nil {
			log.Debug("skipping worktree entry without gitdir", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		branch, ok := worktreeBranch(path)
		if !ok {
			log.Debug("skipping worktree with unresolvable HEAD", zap.String("name", entry.Name()), zap.String("path", path))
			continue
		}
		refs = append(refs, Ref{Branch: branch, Path: path})
	}
	return refs, nil
}

func readWorktreePath(adminDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(adminDir, "gitdir"))
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(data))
	if path == "" {
		return "", errors.New("empty gitdir file")
	}
	path = strings.TrimSuffix(path, string(filepath.Separator)+".git")
	return path, nil
}

func worktreeBranch(path string) (string, bool) {
	repo, err := gitx.Open(path)
	if err != nil {
		return "", false
	}
	head, err := repo.Head()
	if err != nil {
		return "", false
	}
	return head.Name().Short(), true
}
