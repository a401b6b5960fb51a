package ui

import (
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
)

// UnknownAge is shown when a worktree has no resolvable commit time.
const UnknownAge = "unknown"

// PadOrTrim returns s fitted to exactly width terminal cells.
func PadOrTrim(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// RelativeAge formats the distance between t and now using the largest
// whole unit: days, hours, then minutes.
func RelativeAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int64(d/(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh ago", int64(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%dm ago", int64(d/time.Minute))
	default:
		return "now"
	}
}
