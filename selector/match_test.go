package selector

import (
	"strings"
	"testing"
)

// row mimics a three column worktree line.
type row struct {
	text  string
	spans []Span
}

func newRow(cols ...string) *row {
	r := &row{}
	for i, c := range cols {
		if i > 0 {
			r.text += " "
		}
		r.spans = append(r.spans, Span{Start: len(r.text), Length: len(c)})
		r.text += c
	}
	return r
}

func (r *row) Text() string       { return r.text }
func (r *row) MatchSpans() []Span { return r.spans }
func (r *row) Preview() string    { return "preview:" + r.text }

func rows() []Item {
	return []Item{
		newRow("2h ago    ", "main      ", "repo"),
		newRow("1d ago    ", "feature-x ", "feature-x"),
		newRow("3d ago    ", "fix-main  ", "hotfix"),
		newRow("unknown   ", "Docs      ", "docs"),
	}
}

func texts(ms []Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		branch := m.Item.MatchSpans()[1]
		out = append(out, strings.TrimSpace(m.Item.Text()[branch.Start:branch.End()]))
	}
	return out
}

func TestFilterEmptyQueryKeepsArrivalOrder(t *testing.T) {
	got := Filter("   ", rows())
	want := []string{"main", "feature-x", "fix-main", "Docs"}
	if strings.Join(texts(got), ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, texts(got))
	}
	for i, m := range got {
		if m.Index != i || len(m.Positions) != 0 {
			t.Fatalf("unexpected match %+v", m)
		}
	}
}

func TestFilterModes(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{query: "^main", want: []string{"main"}},
		{query: "^fix", want: []string{"fix-main"}},
		{query: "^hot", want: []string{"fix-main"}},
		{query: "^ago", want: nil},
		{query: "'main", want: []string{"main", "fix-main"}},
		{query: "main$", want: []string{"main", "fix-main"}},
		{query: "^main$", want: []string{"main"}},
		{query: "!main", want: []string{"feature-x", "Docs"}},
		{query: "!^fix", want: []string{"main", "feature-x", "Docs"}},
		{query: "'fix !hot", want: nil},
		{query: "'feature ^1d", want: []string{"feature-x"}},
		{query: "'docs", want: []string{"Docs"}},
		{query: "'Docs", want: []string{"Docs"}},
		{query: "'DOCS", want: nil},
		{query: "unknown", want: []string{"Docs"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := texts(Filter(tt.query, rows()))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFilterFuzzyRanksAndHighlights(t *testing.T) {
	got := Filter("fx", rows())
	if len(got) == 0 {
		t.Fatalf("expected fuzzy matches")
	}
	for _, m := range got {
		if len(m.Positions) != 2 {
			t.Fatalf("expected two highlighted runes, got %v", m.Positions)
		}
		text := m.Item.Text()
		if !strings.EqualFold(text[m.Positions[0]:m.Positions[0]+1], "f") || !strings.EqualFold(text[m.Positions[1]:m.Positions[1]+1], "x") {
			t.Fatalf("positions %v do not point at f and x in %q", m.Positions, text)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("matches not sorted by score: %+v", got)
		}
	}
}

func TestFilterPrefixPositions(t *testing.T) {
	got := Filter("^feat", rows())
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	text := got[0].Item.Text()
	start := strings.Index(text, "feature")
	want := []int{start, start + 1, start + 2, start + 3}
	if len(got[0].Positions) != len(want) {
		t.Fatalf("expected positions %v, got %v", want, got[0].Positions)
	}
	for i := range want {
		if got[0].Positions[i] != want[i] {
			t.Fatalf("expected positions %v, got %v", want, got[0].Positions)
		}
	}
}

func TestFilterTiesKeepArrivalOrder(t *testing.T) {
	items := []Item{newRow("a", "same"), newRow("b", "same"), newRow("c", "same")}
	got := Filter("'same", items)
	for i, m := range got {
		if m.Index != i {
			t.Fatalf("expected arrival order, got %+v", got)
		}
	}
}

func TestParseQuery(t *testing.T) {
	terms := parseQuery("foo 'Bar ^baz qux$ ^eq$ !neg ! ' $")
	kinds := []termKind{termFuzzy, termExact, termPrefix, termSuffix, termEqual, termExact, termFuzzy}
	if len(terms) != len(kinds) {
		t.Fatalf("expected %d terms, got %+v", len(kinds), terms)
	}
	for i, k := range kinds {
		if terms[i].kind != k {
			t.Fatalf("term %d: expected kind %d, got %+v", i, k, terms[i])
		}
	}
	if terms[1].caseFold {
		t.Fatalf("upper case term must be case sensitive")
	}
	if !terms[5].inverse || terms[5].text != "neg" {
		t.Fatalf("expected inverse term, got %+v", terms[5])
	}
	if terms[6].text != "$" {
		t.Fatalf("expected lone $ to be fuzzy, got %+v", terms[6])
	}
}
