package selector

// Span is a byte range of an item's text that anchored terms may start at.
type Span struct {
	Start  int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// Item is an entry offered by the selector. Text must not change once the
// item has been sent to the selector.
type Item interface {
	Text() string
	MatchSpans() []Span
	Preview() string
}
