// Package lock serializes destructive operations on a worktree across
// processes with per-worktree file locks under ~/.wtm/locks.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("worktree locked")

type Manager struct {
	dir string
}

// NewManager keeps lock files in $HOME/.wtm/locks.
func NewManager() (*Manager, error) {
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return nil, errors.New("HOME not set")
	}
	return NewManagerAt(filepath.Join(home, ".wtm", "locks")), nil
}

func NewManagerAt(dir string) *Manager {
	return &Manager{dir: dir}
}

type WorktreeLock struct {
	fl           *flock.Flock
	worktreePath string
}

// Acquire takes the lock for worktreePath of the repository whose shared
// git directory is commonDir. It fails with ErrLocked without waiting.
func (m *Manager) Acquire(commonDir string, worktreePath string) (*WorktreeLock, error) {
	commonDir = strings.TrimSpace(commonDir)
	worktreePath = strings.TrimSpace(worktreePath)
	if commonDir == "" {
		return nil, errors.New("repo dir required")
	}
	if worktreePath == "" {
		return nil, errors.New("worktree path required")
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(m.lockPath(commonDir, worktreePath))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, worktreePath)
	}
	return &WorktreeLock{fl: fl, worktreePath: worktreePath}, nil
}

// Release drops the lock. The lock file is left in place so that a waiting
// process never locks an unlinked inode.
func (l *WorktreeLock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	_ = l.fl.Unlock()
}

func (m *Manager) lockPath(commonDir string, worktreePath string) string {
	repoID := hashString(realPathOrAbs(commonDir))
	return filepath.Join(m.dir, hashString(repoID+":"+realPathOrAbs(worktreePath))+".lock")
}

func realPathOrAbs(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return filepath.Clean(real)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// Path is the worktree the lock guards.
func (l *WorktreeLock) Path() string {
	return l.worktreePath
}
