package worktree

import (
	"context"
	"testing"
	"time"

	"github.com/mrbonezy/wtm/internal/testrepo"
	"github.com/mrbonezy/wtm/selector"
	"github.com/mrbonezy/wtm/ui"
)

func record(branch string, age string, commit int64, has bool) *Record {
	return Builder{}.Build(Metadata{
		Ref:        Ref{Branch: branch, Path: "/wt/" + branch},
		CommitUnix: commit,
		HasCommit:  has,
		Age:        age,
	})
}

func drain(ch <-chan selector.Item) []string {
	var branches []string
	for item := range ch {
		branches = append(branches, item.(*Record).Branch())
	}
	return branches
}

func TestFeedOrdersNewestFirstAndUnknownLast(t *testing.T) {
	records := []*Record{
		record("unknown-a", ui.UnknownAge, 0, false),
		record("old", "9d ago", 10, true),
		record("new", "now", 30, true),
		record("tie-1", "1d ago", 20, true),
		record("unknown-b", ui.UnknownAge, 0, false),
		record("tie-2", "1d ago", 20, true),
	}
	index := NewIndex()
	out := make(chan selector.Item, len(records))
	Feed(records, index, out)

	got := drain(out)
	want := []string{"new", "tie-1", "tie-2", "old", "unknown-a", "unknown-b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if index.Len() != len(records) {
		t.Fatalf("expected %d index entries, got %d", len(records), index.Len())
	}
	if records[0].Branch() != "unknown-a" {
		t.Fatalf("feed must not reorder the caller's slice")
	}
}

func TestFeedRegistersBeforeSend(t *testing.T) {
	records := []*Record{record("a", "now", 2, true), record("b", "now", 1, true)}
	index := NewIndex()
	out := make(chan selector.Item)
	go Feed(records, index, out)

	for item := range out {
		ref, ok := index.Lookup(item.Text())
		if !ok {
			t.Fatalf("item %q arrived before it was indexed", item.Text())
		}
		if ref.Branch != item.(*Record).Branch() {
			t.Fatalf("expected %q, got %q", item.(*Record).Branch(), ref.Branch)
		}
	}
}

func TestFeedEmptyClosesChannel(t *testing.T) {
	out := make(chan selector.Item)
	go Feed(nil, NewIndex(), out)
	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel was not closed")
	}
}

type textItem string

func (t textItem) Text() string                { return string(t) }
func (t textItem) MatchSpans() []selector.Span { return nil }
func (t textItem) Preview() string             { return "" }

func TestIndexResolve(t *testing.T) {
	index := NewIndex()
	r := record("feature-x", "1h ago", 5, true)
	index.Add(r)

	ref, ok := index.Resolve(r)
	if !ok || ref.Branch != "feature-x" {
		t.Fatalf("expected feature-x, got %+v (%v)", ref, ok)
	}
	ref, ok = index.Resolve(textItem(r.Text()))
	if !ok || ref.Path != "/wt/feature-x" {
		t.Fatalf("expected lookup by text, got %+v (%v)", ref, ok)
	}
	if _, ok := index.Resolve(textItem("nope")); ok {
		t.Fatalf("expected unknown text to miss")
	}
	if _, ok := index.Resolve(nil); ok {
		t.Fatalf("expected nil item to miss")
	}
}

func TestStreamMainBeforeOlderWorktree(t *testing.T) {
	repo := testrepo.Init(t)
	now := time.Now()
	repo.Commit(t, "README.md", "hello\n", "init", now.Add(-time.Hour))
	featureX := repo.AddWorktree(t, "feature-x", "feature-x", now.Add(-2*24*time.Hour))
	repo.LinkWorktree(t, "broken", "ref: refs/heads/missing")

	refs, err := Locate(repo.Root, nil)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	index := NewIndex()
	out := make(chan selector.Item, len(refs))
	Stream(context.Background(), refs, Builder{}, index, out, nil, nil)

	var items []selector.Item
	for item := range out {
		items = append(items, item)
	}
	want := []Ref{{Branch: "main", Path: repo.Root}, {Branch: "feature-x", Path: featureX}}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range items {
		ref, ok := index.Lookup(item.Text())
		if !ok || ref != want[i] {
			t.Fatalf("item %d: expected %+v, got %+v (%v)", i, want[i], ref, ok)
		}
	}
}
