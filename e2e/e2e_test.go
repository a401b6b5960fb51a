package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

type testRepo struct {
	root     string
	worktree string
}

func wtmBin(t *testing.T) string {
	t.Helper()
	bin := strings.TrimSpace(os.Getenv("WTM_E2E_BIN"))
	if bin == "" {
		t.Skip("WTM_E2E_BIN not set; build cmd/wtm-select and point WTM_E2E_BIN at it")
	}
	abs, err := filepath.Abs(bin)
	if err != nil {
		t.Fatalf("resolve bin path: %v", err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("wtm-select binary not found at %s (set WTM_E2E_BIN): %v", abs, err)
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	return abs
}

func runWTM(t *testing.T, dir string, home string, args ...string) runResult {
	t.Helper()
	cmd := exec.Command(wtmBin(t), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+home, "ACCESSIBLE=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func runCmd(t *testing.T, dir string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run %s %v failed: %v\n%s", name, args, err, string(out))
	}
	return strings.TrimSpace(string(out))
}

func setupRepoWithWorktree(t *testing.T) testRepo {
	t.Helper()
	base := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	repoRoot := filepath.Join(base, "repo")
	if err := os.MkdirAll(repoRoot, 0o755); err != nil {
		t.Fatalf("mkdir repo: %v", err)
	}
	runCmd(t, repoRoot, "git", "init")
	runCmd(t, repoRoot, "git", "checkout", "-B", "main")
	runCmd(t, repoRoot, "git", "config", "user.email", "e2e@example.test")
	runCmd(t, repoRoot, "git", "config", "user.name", "WTM E2E")
	if err := os.WriteFile(filepath.Join(repoRoot, "README.md"), []byte("root\n"), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	runCmd(t, repoRoot, "git", "add", "README.md")
	runCmd(t, repoRoot, "git", "commit", "-m", "init")

	wt := filepath.Join(base, "feature-one")
	runCmd(t, repoRoot, "git", "worktree", "add", "-b", "feature/one", wt, "main")
	return testRepo{root: repoRoot, worktree: wt}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestCDPrintsOnlyThePath(t *testing.T) {
	repo := setupRepoWithWorktree(t)

	res := runWTM(t, repo.root, t.TempDir(), "--query", "feature", "--select-1")
	if res.err != nil {
		t.Fatalf("wtm-select failed: %v\n%s", res.err, res.stderr)
	}
	if res.stdout != repo.worktree+"\n" {
		t.Fatalf("expected %q, got %q", repo.worktree+"\n", res.stdout)
	}
}

func TestCDFromInsideLinkedWorktree(t *testing.T) {
	repo := setupRepoWithWorktree(t)

	res := runWTM(t, repo.worktree, t.TempDir(), "-q", "^main", "-1")
	if res.err != nil {
		t.Fatalf("wtm-select failed: %v\n%s", res.err, res.stderr)
	}
	if strings.TrimSpace(res.stdout) != repo.root {
		t.Fatalf("expected %q, got %q", repo.root, res.stdout)
	}
}

func TestRemoveWithYes(t *testing.T) {
	repo := setupRepoWithWorktree(t)

	res := runWTM(t, repo.root, t.TempDir(), "--action", "remove", "--yes", "-q", "feature", "-1")
	if res.err != nil {
		t.Fatalf("wtm-select failed: %v\n%s", res.err, res.stderr)
	}
	if res.stdout != "" {
		t.Fatalf("expected empty stdout, got %q", res.stdout)
	}
	if !strings.Contains(res.stderr, "Removing worktree: feature/one ("+repo.worktree+")") {
		t.Fatalf("expected progress message, got %q", res.stderr)
	}
	if !strings.Contains(res.stderr, "Deleted branch: feature/one") {
		t.Fatalf("expected branch message, got %q", res.stderr)
	}
	if _, err := os.Stat(repo.worktree); !os.IsNotExist(err) {
		t.Fatalf("expected worktree directory to be gone, stat err=%v", err)
	}

	list := runCmd(t, repo.root, "git", "worktree", "list", "--porcelain")
	if strings.Contains(list, repo.worktree) {
		t.Fatalf("git still lists the removed worktree:\n%s", list)
	}
	branches := runCmd(t, repo.root, "git", "branch", "--list", "feature/one")
	if branches != "" {
		t.Fatalf("expected branch feature/one to be deleted, got %q", branches)
	}
}

func TestUnknownActionIsNotAnError(t *testing.T) {
	repo := setupRepoWithWorktree(t)

	res := runWTM(t, repo.root, t.TempDir(), "--action", "archive", "-q", "feature", "-1")
	if res.err != nil {
		t.Fatalf("expected exit 0, got %v\n%s", res.err, res.stderr)
	}
	if strings.TrimSpace(res.stderr) != "Unknown action: archive" {
		t.Fatalf("expected unknown action message, got %q", res.stderr)
	}
	if _, err := os.Stat(repo.worktree); err != nil {
		t.Fatalf("worktree must survive: %v", err)
	}
}

func TestOutsideRepositoryFails(t *testing.T) {
	wtmBin(t)
	dir := t.TempDir()

	res := runWTM(t, dir, t.TempDir(), "-1")
	if code := exitCode(res.err); code != 1 {
		t.Fatalf("expected exit 1, got %d\n%s", code, res.stderr)
	}
	if !strings.HasPrefix(res.stderr, "wtm-select error:") {
		t.Fatalf("expected error prefix, got %q", res.stderr)
	}
	if res.stdout != "" {
		t.Fatalf("expected empty stdout, got %q", res.stdout)
	}
}
