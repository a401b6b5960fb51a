package worktree

import (
	"context"
	"runtime"
	"time"

	"github.com/mrbonezy/wtm/gitx"
	"github.com/mrbonezy/wtm/ui"
	"golang.org/x/sync/errgroup"
)

// Metadata is a Ref annotated with its HEAD commit time. HasCommit is false
// when the time could not be read, in which case Age is ui.UnknownAge.
type Metadata struct {
	Ref
	CommitUnix int64
	HasCommit  bool
	Age        string
}

// CollectOne reads the HEAD commit time of ref. Failures degrade to an
// unknown age.
func CollectOne(ref Ref, now time.Time) Metadata {
	m := Metadata{Ref: ref, Age: ui.UnknownAge}
	repo, err := gitx.Open(ref.Path)
	if err != nil {
		return m
	}
	commit, err := gitx.HeadCommit(repo)
	if err != nil {
		return m
	}
	when := commit.Committer.When
	m.CommitUnix = when.Unix()
	m.HasCommit = true
	m.Age = ui.RelativeAge(when, now)
	return m
}

// Collect runs CollectOne for every ref in parallel, bounded by the number
// of CPUs. The result is index-aligned with refs.
func Collect(ctx context.Context, refs []Ref, now func() time.Time) []Metadata {
	if now == nil {
		now = time.Now
	}
	out := make([]Metadata, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, ref := range refs {
		g.Go(func() error {
			if ctx.Err() != nil {
				out[i] = Metadata{Ref: ref, Age: ui.UnknownAge}
				return nil
			}
			out[i] = CollectOne(ref, now())
			return nil
		})
	}
	_ = g.Wait()
	return out
}
