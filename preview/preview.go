// Package preview renders the text shown next to the highlighted worktree.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/mrbonezy/wtm/gitx"
	"github.com/mrbonezy/wtm/ui"
	"go.uber.org/zap"
)

const (
	maxStatusEntries = 10
	maxHistory       = 10
	maxDiffEntries   = 15
	rule             = "───────────────────────────────────────────────────"
)

// DefaultBaseRefs are tried in order when comparing a worktree with its
// upstream.
var DefaultBaseRefs = []string{"origin/develop", "origin/main", "origin/master"}

// Generator renders previews. The zero value is usable.
type Generator struct {
	BaseRefs []string
	// Timeout bounds the diff against the baseline.
	Timeout time.Duration
	Now     func() time.Time
	Log     *zap.Logger
}

func (g Generator) baseRefs() []string {
	if len(g.BaseRefs) == 0 {
		return DefaultBaseRefs
	}
	return g.BaseRefs
}

func (g Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g Generator) log() *zap.Logger {
	if g.Log != nil {
		return g.Log
	}
	return zap.NewNop()
}

// Generate renders the preview of the worktree at path. Every section is
// computed independently; a failing section is left out or marked
// unavailable.
func (g Generator) Generate(branch string, path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌳 Branch: %s\n\n", branch)
	fmt.Fprintf(&b, "📁 Path: %s\n\n", path)

	repo, err := gitx.Open(path)
	if err != nil {
		g.log().Debug("preview open failed", zap.String("path", path), zap.Error(err))
		b.WriteString("Error: Cannot access worktree\n")
		return b.String()
	}

	head, headErr := gitx.HeadCommit(repo)
	if headErr == nil {
		fmt.Fprintf(&b, "🕐 Last commit: %s: %s\n\n", ui.RelativeAge(head.Committer.When, g.now()), gitx.Summary(head))
	}

	g.writeStatus(&b, repo)
	b.WriteString("\n")
	if headErr == nil {
		writeHistory(&b, repo, head)
	} else {
		b.WriteString("📜 Recent commits:\n" + rule + "\n")
	}
	b.WriteString("\n")
	g.writeDivergence(&b, repo, head)
	return b.String()
}

func (g Generator) writeStatus(b *strings.Builder, repo *git.Repository) {
	b.WriteString("📝 Changed files:\n" + rule + "\n")
	wt, err := repo.Worktree()
	if err != nil {
		b.WriteString("  (status unavailable)\n")
		return
	}
	status, err := wt.Status()
	if err != nil {
		g.log().Debug("preview status failed", zap.Error(err))
		b.WriteString("  (status unavailable)\n")
		return
	}
	paths := make([]string, 0, len(status))
	for p, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		b.WriteString("  ✨ Working tree clean\n")
		return
	}
	sort.Strings(paths)
	for i, p := range paths {
		if i == maxStatusEntries {
			fmt.Fprintf(b, "  ... and %d more\n", len(paths)-maxStatusEntries)
			break
		}
		fmt.Fprintf(b, "  %s %s\n", StatusLetter(status[p]), p)
	}
}

// StatusLetter classifies a working tree entry. New files win over
// modifications, then deletions, renames and conflicts.
func StatusLetter(fs *git.FileStatus) string {
	has := func(c git.StatusCode) bool {
		return fs.Staging == c || fs.Worktree == c
	}
	switch {
	case has(git.Added) || has(git.Untracked):
		return "A"
	case has(git.Modified):
		return "M"
	case has(git.Deleted):
		return "D"
	case has(git.Renamed):
		return "R"
	case has(git.UpdatedButUnmerged):
		return "C"
	default:
		return "?"
	}
}

func writeHistory(b *strings.Builder, repo *git.Repository, head *object.Commit) {
	b.WriteString("📜 Recent commits:\n" + rule + "\n")
	iter, err := repo.Log(&git.LogOptions{From: head.Hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return
	}
	defer iter.Close()
	n := 0
	_ = iter.ForEach(func(c *object.Commit) error {
		if n == maxHistory {
			return storer.ErrStop
		}
		fmt.Fprintf(b, "  %s %s\n", gitx.ShortHash(c), gitx.Summary(c))
		n++
		return nil
	})
}

// resolveBase returns the first configured baseline that exists under
// refs/remotes/.
func (g Generator) resolveBase(repo *git.Repository) (string, *object.Commit, bool) {
	for _, name := range g.baseRefs() {
		ref, err := repo.Reference(remoteRefName(name), true)
		if err != nil {
			continue
		}
		commit, err := repo.CommitObject(ref.Hash())
		if err != nil {
			continue
		}
		return name, commit, true
	}
	return "", nil, false
}

func remoteRefName(name string) plumbing.ReferenceName {
	if strings.HasPrefix(name, "refs/") {
		return plumbing.ReferenceName(name)
	}
	return plumbing.ReferenceName("refs/remotes/" + name)
}

func (g Generator) writeDivergence(b *strings.Builder, repo *git.Repository, head *object.Commit) {
	name, base, ok := g.resolveBase(repo)
	if !ok {
		b.WriteString("📊 Diff vs upstream:\n" + rule + "\n")
		fmt.Fprintf(b, "  (no baseline found: %s)\n", strings.Join(g.baseRefs(), ", "))
		return
	}
	fmt.Fprintf(b, "📊 Diff vs %s:\n%s\n", name, rule)
	if head == nil {
		return
	}
	ctx := context.Background()
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	entries, stats, err := diffTrees(ctx, base, head)
	if err != nil {
		g.log().Debug("preview diff failed", zap.String("base", name), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			b.WriteString("  (diff timed out)\n")
		} else {
			b.WriteString("  (diff unavailable)\n")
		}
		return
	}
	if stats != nil {
		fmt.Fprintf(b, "  %d file(s) changed, +%d -%d\n", stats.files, stats.additions, stats.deletions)
	}
	if len(entries) == 0 {
		fmt.Fprintf(b, "  ✨ No changes from %s\n", name)
		return
	}
	for i, e := range entries {
		if i == maxDiffEntries {
			fmt.Fprintf(b, "  ... and %d more files\n", len(entries)-maxDiffEntries)
			break
		}
		fmt.Fprintf(b, "  %s %s\n", e.letter, e.path)
	}
}

type diffEntry struct {
	letter string
	path   string
}

type diffStats struct {
	files     int
	additions int
	deletions int
}

func diffTrees(ctx context.Context, from *object.Commit, to *object.Commit) ([]diffEntry, *diffStats, error) {
	fromTree, err := from.Tree()
	if err != nil {
		return nil, nil, err
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, nil, err
	}
	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]diffEntry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, diffEntry{letter: ChangeLetter(c), path: changePath(c)})
	}

	var stats *diffStats
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
	} else {
		stats = &diffStats{}
		for _, fs := range patch.Stats() {
			stats.files++
			stats.additions += fs.Addition
			stats.deletions += fs.Deletion
		}
	}
	return entries, stats, nil
}

// ChangeLetter classifies a tree change: A, D, M or R for a modification
// that moved the path.
func ChangeLetter(c *object.Change) string {
	action, err := c.Action()
	if err != nil {
		return "?"
	}
	switch action {
	case merkletrie.Insert:
		return "A"
	case merkletrie.Delete:
		return "D"
	case merkletrie.Modify:
		if c.From.Name != c.To.Name {
			return "R"
		}
		return "M"
	default:
		return "?"
	}
}

func changePath(c *object.Change) string {
	if c.To.Name != "" {
		return c.To.Name
	}
	return c.From.Name
}
