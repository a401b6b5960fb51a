package worktree

import (
	"math"
	"path/filepath"

	"github.com/mrbonezy/wtm/selector"
	"github.com/mrbonezy/wtm/ui"
)

// Previewer renders the preview pane for a checkout.
type Previewer interface {
	Generate(branch string, path string) string
}

// Record is the selectable form of a worktree. It is immutable once built.
type Record struct {
	ref        Ref
	text       string
	spans      []selector.Span
	commitUnix int64
	previewer  Previewer
}

var _ selector.Item = (*Record)(nil)

func (r *Record) Text() string                { return r.text }
func (r *Record) MatchSpans() []selector.Span { return append([]selector.Span(nil), r.spans...) }
func (r *Record) Branch() string              { return r.ref.Branch }
func (r *Record) Path() string                { return r.ref.Path }
func (r *Record) Ref() Ref                    { return r.ref }

// CommitUnix is the HEAD commit time, or math.MinInt64 when unknown.
func (r *Record) CommitUnix() int64 { return r.commitUnix }

func (r *Record) Preview() string {
	if r.previewer == nil {
		return ""
	}
	return r.previewer.Generate(r.ref.Branch, r.ref.Path)
}

// Builder renders Metadata into Records.
type Builder struct {
	Previewer Previewer
}

// Build lays out the age, branch and directory columns and records the
// byte span of each.
func (b Builder) Build(m Metadata) *Record {
	age := ui.PadOrTrim(m.Age, ui.AgeWidth)
	branch := ui.PadOrTrim(m.Branch, ui.BranchWidth)
	dir := DirName(m.Path)
	text := age + " " + branch + " " + dir

	commit := int64(math.MinInt64)
	if m.HasCommit {
		commit = m.CommitUnix
	}
	return &Record{
		ref:  m.Ref,
		text: text,
		spans: []selector.Span{
			{Start: 0, Length: len(age)},
			{Start: len(age) + 1, Length: len(branch)},
			{Start: len(age) + 1 + len(branch) + 1, Length: len(dir)},
		},
		commitUnix: commit,
		previewer:  b.Previewer,
	}
}

// DirName is the final path segment, or the whole path when there is none.
func DirName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return path
	}
	return base
}
