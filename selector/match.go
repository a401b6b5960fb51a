package selector

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

type termKind int

const (
	termFuzzy termKind = iota
	termExact
	termPrefix
	termSuffix
	termEqual
)

// term is one whitespace separated word of a query.
//
//	foo    fuzzy
//	'foo   substring
//	^foo   a match span starts with foo
//	foo$   a match span ends with foo
//	^foo$  a match span is foo
//	!foo   negation of any of the non-fuzzy forms
type term struct {
	kind     termKind
	text     string
	inverse  bool
	caseFold bool
}

func parseQuery(query string) []term {
	fields := strings.Fields(query)
	terms := make([]term, 0, len(fields))
	for _, f := range fields {
		t := term{kind: termFuzzy}
		if strings.HasPrefix(f, "!") {
			t.inverse = true
			t.kind = termExact
			f = f[1:]
		}
		switch {
		case strings.HasPrefix(f, "'"):
			t.kind = termExact
			f = f[1:]
		case strings.HasPrefix(f, "^") && len(f) > 1 && strings.HasSuffix(f, "$"):
			t.kind = termEqual
			f = f[1 : len(f)-1]
		case strings.HasPrefix(f, "^"):
			t.kind = termPrefix
			f = f[1:]
		case len(f) > 1 && strings.HasSuffix(f, "$"):
			t.kind = termSuffix
			f = f[:len(f)-1]
		}
		if f == "" {
			continue
		}
		t.text = f
		t.caseFold = !hasUpper(f)
		terms = append(terms, t)
	}
	return terms
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// Match is an item that satisfied the query. Positions are byte offsets
// of the matched runes in the item's text.
type Match struct {
	Item      Item
	Index     int
	Score     int
	Positions []int
}

type textSource []Item

func (s textSource) String(i int) string { return s[i].Text() }
func (s textSource) Len() int            { return len(s) }

// Filter returns the items matching every term of query, best score first
// and arrival order among equal scores. An empty query keeps every item in
// arrival order.
func Filter(query string, items []Item) []Match {
	terms := parseQuery(query)
	matches := make([]Match, len(items))
	alive := make([]bool, len(items))
	for i, item := range items {
		matches[i] = Match{Item: item, Index: i}
		alive[i] = true
	}
	for _, t := range terms {
		if t.kind == termFuzzy && !t.inverse {
			hit := make([]bool, len(items))
			for _, fm := range fuzzy.FindFromNoSort(t.text, textSource(items)) {
				hit[fm.Index] = true
				m := &matches[fm.Index]
				m.Score += fm.Score
				m.Positions = append(m.Positions, fm.MatchedIndexes...)
			}
			for i := range alive {
				alive[i] = alive[i] && hit[i]
			}
			continue
		}
		for i, item := range items {
			if !alive[i] {
				continue
			}
			start, end, ok := t.find(item)
			if t.inverse {
				alive[i] = !ok
				continue
			}
			if !ok {
				alive[i] = false
				continue
			}
			m := &matches[i]
			m.Score += 2 * len(t.text)
			m.Positions = append(m.Positions, runeStarts(item.Text(), start, end)...)
		}
	}

	out := make([]Match, 0, len(items))
	for i := range matches {
		if alive[i] {
			out = append(out, matches[i])
		}
	}
	if len(terms) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Score > out[j].Score
		})
	}
	return out
}

// find locates the term in item and returns the matched byte range.
func (t term) find(item Item) (int, int, bool) {
	text := item.Text()
	if t.kind == termExact || t.kind == termFuzzy {
		return indexFold(text, t.text, t.caseFold)
	}
	spans := item.MatchSpans()
	if len(spans) == 0 {
		spans = []Span{{Start: 0, Length: len(text)}}
	}
	for _, s := range spans {
		if s.Start < 0 || s.End() > len(text) {
			continue
		}
		col := strings.TrimRight(text[s.Start:s.End()], " ")
		switch t.kind {
		case termPrefix:
			if n, ok := prefixFold(col, t.text, t.caseFold); ok {
				return s.Start, s.Start + n, true
			}
		case termSuffix:
			for i := range col {
				if n, ok := prefixFold(col[i:], t.text, t.caseFold); ok && i+n == len(col) {
					return s.Start + i, s.Start + len(col), true
				}
			}
		case termEqual:
			if n, ok := prefixFold(col, t.text, t.caseFold); ok && n == len(col) {
				return s.Start, s.Start + n, true
			}
		}
	}
	return 0, 0, false
}

// indexFold is strings.Index that optionally ignores case.
func indexFold(s string, sub string, fold bool) (int, int, bool) {
	for i := range s {
		if n, ok := prefixFold(s[i:], sub, fold); ok {
			return i, i + n, true
		}
	}
	return 0, 0, false
}

// prefixFold reports whether s starts with prefix and how many bytes of s
// the prefix covered.
func prefixFold(s string, prefix string, fold bool) (int, bool) {
	if !fold {
		if strings.HasPrefix(s, prefix) {
			return len(prefix), true
		}
		return 0, false
	}
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if sr != pr && unicode.ToLower(sr) != unicode.ToLower(pr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func runeStarts(s string, start int, end int) []int {
	var out []int
	for i := range s[start:end] {
		out = append(out, start+i)
	}
	return out
}
