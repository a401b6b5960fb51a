// Package testrepo builds throwaway git repositories for tests without
// shelling out to a git binary.
package testrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Repo struct {
	Root string
	Git  *git.Repository
	base string
}

// Init creates a non-bare repository whose default branch is main.
func Init(t testing.TB) *Repo {
	t.Helper()
	base := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	root := filepath.Join(base, "repo")
	repo, err := git.PlainInitWithOptions(root, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return &Repo{Root: root, Git: repo, base: base}
}

func signature(when time.Time) *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: when}
}

// Commit writes content to file in the main checkout and commits it.
func (r *Repo) Commit(t testing.TB, file string, content string, msg string, when time.Time) plumbing.Hash {
	t.Helper()
	r.WriteFile(t, file, content)
	wt, err := r.Git.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(file); err != nil {
		t.Fatalf("add %s: %v", file, err)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: signature(when), Committer: signature(when)})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

// WriteFile writes content to a path relative to the main checkout.
func (r *Repo) WriteFile(t testing.TB, file string, content string) {
	t.Helper()
	path := filepath.Join(r.Root, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", file, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", file, err)
	}
}

// Head returns the commit HEAD currently points at.
func (r *Repo) Head(t testing.TB) plumbing.Hash {
	t.Helper()
	head, err := r.Git.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	return head.Hash()
}

// CommitOnto records a commit whose tree equals parent's tree, without
// touching any checkout.
func (r *Repo) CommitOnto(t testing.TB, parent plumbing.Hash, msg string, when time.Time) plumbing.Hash {
	t.Helper()
	p, err := r.Git.CommitObject(parent)
	if err != nil {
		t.Fatalf("load parent %s: %v", parent, err)
	}
	c := &object.Commit{
		Author:       *signature(when),
		Committer:    *signature(when),
		Message:      msg,
		TreeHash:     p.TreeHash,
		ParentHashes: []plumbing.Hash{parent},
	}
	obj := r.Git.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		t.Fatalf("encode commit: %v", err)
	}
	hash, err := r.Git.Storer.SetEncodedObject(obj)
	if err != nil {
		t.Fatalf("store commit: %v", err)
	}
	return hash
}

// SetRef points name at hash.
func (r *Repo) SetRef(t testing.TB, name plumbing.ReferenceName, hash plumbing.Hash) {
	t.Helper()
	if err := r.Git.Storer.SetReference(plumbing.NewHashReference(name, hash)); err != nil {
		t.Fatalf("set ref %s: %v", name, err)
	}
}

// SetSymbolicHead points the main checkout's HEAD at target, which need
// not exist.
func (r *Repo) SetSymbolicHead(t testing.TB, target plumbing.ReferenceName) {
	t.Helper()
	if err := r.Git.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, target)); err != nil {
		t.Fatalf("set HEAD: %v", err)
	}
}

// AddWorktree registers a linked worktree named name checked out on branch,
// whose tip is a fresh commit dated when. It returns the worktree path.
func (r *Repo) AddWorktree(t testing.TB, name string, branch string, when time.Time) string {
	t.Helper()
	tip := r.CommitOnto(t, r.Head(t), "work on "+branch, when)
	r.SetRef(t, plumbing.NewBranchReferenceName(branch), tip)
	return r.LinkWorktree(t, name, "ref: refs/heads/"+branch)
}

// LinkWorktree writes the administrative files of a linked worktree whose
// HEAD file holds head. It returns the worktree path.
func (r *Repo) LinkWorktree(t testing.TB, name string, head string) string {
	t.Helper()
	path := filepath.Join(r.base, name)
	admin := filepath.Join(r.Root, ".git", "worktrees", name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir worktree: %v", err)
	}
	if err := os.MkdirAll(admin, 0o755); err != nil {
		t.Fatalf("mkdir admin dir: %v", err)
	}
	write := func(p string, content string) {
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	write(filepath.Join(path, ".git"), "gitdir: "+admin+"\n")
	write(filepath.Join(admin, "HEAD"), head+"\n")
	write(filepath.Join(admin, "commondir"), "../..\n")
	write(filepath.Join(admin, "gitdir"), filepath.Join(path, ".git")+"\n")
	return path
}
