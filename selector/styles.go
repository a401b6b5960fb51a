package selector

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mrbonezy/wtm/ui"
)

type styles struct {
	banner    lipgloss.Style
	header    lipgloss.Style
	prompt    lipgloss.Style
	normal    lipgloss.Style
	selected  lipgloss.Style
	match     lipgloss.Style
	secondary lipgloss.Style
	cursor    lipgloss.Style
	preview   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFF7DB")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1),
		header:    r.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		prompt:    r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		normal:    r.NewStyle().Foreground(lipgloss.Color("251")),
		selected:  r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		match:     r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		secondary: r.NewStyle().Foreground(lipgloss.Color("245")),
		cursor:    r.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
		preview: r.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("241")).
			PaddingLeft(1),
	}
}

func (s styles) view() ui.Styles {
	return ui.Styles{
		Header:    func(v string) string { return s.header.Render(v) },
		Normal:    func(v string) string { return s.normal.Render(v) },
		Selected:  func(v string) string { return s.selected.Render(v) },
		Match:     func(v string) string { return s.match.Render(v) },
		Secondary: func(v string) string { return s.secondary.Render(v) },
		Cursor:    func(v string) string { return s.cursor.Render(v) },
	}
}
