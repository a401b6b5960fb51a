package ui

import (
	"strings"
	"testing"
)

func plainStyles() Styles {
	id := func(s string) string { return s }
	return Styles{
		Header:    id,
		Normal:    id,
		Selected:  id,
		Secondary: id,
		Cursor:    id,
		Match:     func(s string) string { return "[" + s + "]" },
	}
}

func TestFormatWorktreeLine(t *testing.T) {
	got := FormatWorktreeLine("2d ago", "main", "repo")
	want := "2d ago     " + "main" + strings.Repeat(" ", 36) + " repo"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnHeaderAlignsWithRows(t *testing.T) {
	header := ColumnHeader()
	if !strings.HasPrefix(header, "Updated    Branch ") {
		t.Fatalf("unexpected header %q", header)
	}
	if idx := strings.Index(header, "Directory"); idx != AgeWidth+1+BranchWidth+1 {
		t.Fatalf("expected directory column at %d, got %d", AgeWidth+BranchWidth+2, idx)
	}
}

func TestRenderWorktreeSelectorHighlightsMatches(t *testing.T) {
	rows := []WorktreeRow{
		{Text: "alpha"},
		{Text: "beta", Matched: []int{0, 1, 3}},
	}
	got := RenderWorktreeSelector(rows, 1, 5, plainStyles())
	want := "  alpha\n▌ [be]t[a]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRenderWorktreeSelectorScrollsToCursor(t *testing.T) {
	rows := []WorktreeRow{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}
	got := RenderWorktreeSelector(rows, 3, 2, plainStyles())
	want := "  c\n▌ d"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if out := RenderWorktreeSelector(nil, 0, 3, plainStyles()); out != "" {
		t.Fatalf("expected empty render, got %q", out)
	}
}
