package worktree

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mrbonezy/wtm/selector"
	"go.uber.org/zap"
)

// Index maps the text of every record sent to the selector back to its
// worktree. Entries are added before the record is sent.
type Index struct {
	mu     sync.Mutex
	byText map[string]Ref
}

func NewIndex() *Index {
	return &Index{byText: make(map[string]Ref)}
}

func (ix *Index) Add(r *Record) {
	ix.mu.Lock()
	ix.byText[r.Text()] = r.Ref()
	ix.mu.Unlock()
}

func (ix *Index) Lookup(text string) (Ref, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ref, ok := ix.byText[text]
	return ref, ok
}

func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.byText)
}

// Resolve maps a selected item to its worktree. Records carry their own
// Ref; any other Item is looked up by text.
func (ix *Index) Resolve(item selector.Item) (Ref, bool) {
	if item == nil {
		return Ref{}, false
	}
	if r, ok := item.(*Record); ok && r != nil {
		return r.Ref(), true
	}
	return ix.Lookup(item.Text())
}

// Feed sends records newest first, registering each in index before it is
// sent, and closes out when done. out must have room for every record or a
// live reader.
func Feed(records []*Record, index *Index, out chan<- selector.Item) {
	sorted := append([]*Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CommitUnix() > sorted[j].CommitUnix()
	})
	for _, r := range sorted {
		index.Add(r)
		out <- r
	}
	close(out)
}

// Stream collects metadata for refs, builds records and feeds them to out.
// It is meant to run on its own goroutine.
func Stream(ctx context.Context, refs []Ref, b Builder, index *Index, out chan<- selector.Item, now func() time.Time, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	metas := Collect(ctx, refs, now)
	records := make([]*Record, 0, len(metas))
	for _, m := range metas {
		if !m.HasCommit {
			log.Debug("no commit time", zap.String("branch", m.Branch), zap.String("path", m.Path))
		}
		records = append(records, b.Build(m))
	}
	log.Debug("collected worktree metadata", zap.Int("count", len(records)), zap.Duration("elapsed", time.Since(start)))
	Feed(records, index, out)
}
