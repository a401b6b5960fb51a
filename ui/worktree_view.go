package ui

import (
	"strings"
	"unicode/utf8"
)

// Styles holds the render functions used by the selector views.
type Styles struct {
	Header    func(string) string
	Normal    func(string) string
	Selected  func(string) string
	Match     func(string) string
	Secondary func(string) string
	Cursor    func(string) string
}

// WorktreeRow is one line of the selector list. Matched holds byte offsets
// into Text that the current query matched.
type WorktreeRow struct {
	Text    string
	Matched []int
}

const (
	AgeWidth    = 10
	BranchWidth = 40
)

// ColumnHeader is the title line aligned with FormatWorktreeLine.
func ColumnHeader() string {
	return FormatWorktreeLine("Updated", "Branch", "Directory")
}

// FormatWorktreeLine lays out the age and branch columns at fixed widths
// followed by the free-width directory column.
func FormatWorktreeLine(age string, branch string, dir string) string {
	return PadOrTrim(age, AgeWidth) + " " + PadOrTrim(branch, BranchWidth) + " " + dir
}

// RenderWorktreeSelector renders at most height rows, scrolled so that
// cursor stays visible.
func RenderWorktreeSelector(rows []WorktreeRow, cursor int, height int, styles Styles) string {
	if height <= 0 || len(rows) == 0 {
		return ""
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > len(rows) {
		end = len(rows)
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString("\n")
		}
		base := styles.Normal
		if i == cursor {
			b.WriteString(styles.Cursor("▌ "))
			base = styles.Selected
		} else {
			b.WriteString("  ")
		}
		b.WriteString(highlight(rows[i].Text, rows[i].Matched, base, styles.Match))
	}
	return b.String()
}

func highlight(text string, matched []int, base func(string) string, match func(string) string) string {
	if len(matched) == 0 {
		return base(text)
	}
	hit := make(map[int]bool, len(matched))
	for _, idx := range matched {
		hit[idx] = true
	}
	var b strings.Builder
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runHit {
			b.WriteString(match(run.String()))
		} else {
			b.WriteString(base(run.String()))
		}
		run.Reset()
	}
	for i, r := range text {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		if r == utf8.RuneError {
			run.WriteString(text[i : i+1])
			continue
		}
		run.WriteRune(r)
	}
	flush()
	return b.String()
}
