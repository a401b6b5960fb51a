package selector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrbonezy/wtm/ui"
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	// previewRatio is the share of the width given to the preview pane.
	previewRatio = 0.6
)

type itemMsg struct {
	item Item
	ok   bool
}

// previewMsg carries the preview of the item that arrived at index.
type previewMsg struct {
	index int
	text  string
}

func waitForItem(source <-chan Item) tea.Cmd {
	if source == nil {
		return nil
	}
	return func() tea.Msg {
		item, ok := <-source
		return itemMsg{item: item, ok: ok}
	}
}

func previewCmd(index int, item Item) tea.Cmd {
	return func() tea.Msg {
		return previewMsg{index: index, text: item.Preview()}
	}
}

type model struct {
	source      <-chan Item
	items       []Item
	matches     []Match
	cursor      int
	streaming   bool
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
	styles      styles
	header      string
	columns     string
	width       int
	height      int
	showPreview bool
	previews    map[int]string
	pending     map[int]bool
	selected    Item
	done        bool
}

func newModel(source <-chan Item, seed []Item, opts Options, st styles) model {
	in := textinput.New()
	in.Prompt = st.prompt.Render(opts.prompt())
	in.SetValue(opts.Query)
	in.CursorEnd()
	in.Focus()

	m := model{
		source:      source,
		items:       append([]Item(nil), seed...),
		streaming:   source != nil,
		input:       in,
		viewport:    viewport.New(0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(st.secondary)),
		help:        help.New(),
		keys:        defaultKeyMap(),
		styles:      st,
		header:      opts.header(),
		columns:     opts.Columns,
		width:       defaultWidth,
		height:      defaultHeight,
		showPreview: opts.Preview,
		previews:    map[int]string{},
		pending:     map[int]bool{},
	}
	m.refilter()
	m.layout()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.streaming {
		cmds = append(cmds, waitForItem(m.source), m.spinner.Tick)
	}
	cmds = append(cmds, m.ensurePreview())
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case itemMsg:
		if !msg.ok {
			m.streaming = false
			return m, nil
		}
		current := m.currentIndex()
		m.items = append(m.items, msg.item)
		m.refilter()
		m.keepCursorOn(current)
		cmd := m.ensurePreview()
		return m, tea.Batch(waitForItem(m.source), cmd)
	case previewMsg:
		delete(m.pending, msg.index)
		m.previews[msg.index] = msg.text
		if m.currentIndex() == msg.index {
			m.viewport.SetContent(msg.text)
			m.viewport.GotoTop()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Accept):
			m.selected = m.current()
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			cmd := m.ensurePreview()
			return m, cmd
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			cmd := m.ensurePreview()
			return m, cmd
		case key.Matches(msg, m.keys.TogglePreview):
			m.showPreview = !m.showPreview
			m.layout()
			cmd := m.ensurePreview()
			return m, cmd
		case key.Matches(msg, m.keys.PreviewUp):
			m.viewport.HalfPageUp()
			return m, nil
		case key.Matches(msg, m.keys.PreviewDown):
			m.viewport.HalfPageDown()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter()
		m.cursor = 0
		preview := m.ensurePreview()
		return m, tea.Batch(cmd, preview)
	}
	return m, cmd
}

func (m *model) refilter() {
	m.matches = Filter(m.input.Value(), m.items)
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
}

// keepCursorOn moves the cursor back to the item that arrived index-th
// after the match list was rebuilt, so streaming does not change the
// highlighted entry.
func (m *model) keepCursorOn(index int) {
	if index < 0 {
		return
	}
	for i, match := range m.matches {
		if match.Index == index {
			m.cursor = i
			return
		}
	}
}

func (m model) currentIndex() int {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return -1
	}
	return m.matches[m.cursor].Index
}

func (m model) current() Item {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return nil
	}
	return m.matches[m.cursor].Item
}

// ensurePreview shows the cached preview of the highlighted item or starts
// computing it.
func (m *model) ensurePreview() tea.Cmd {
	if !m.showPreview {
		return nil
	}
	cur := m.current()
	if cur == nil {
		m.viewport.SetContent("")
		return nil
	}
	k := m.currentIndex()
	if text, ok := m.previews[k]; ok {
		m.viewport.SetContent(text)
		return nil
	}
	m.viewport.SetContent(m.styles.secondary.Render("Loading preview..."))
	if m.pending[k] {
		return nil
	}
	m.pending[k] = true
	return previewCmd(k, cur)
}

func (m model) chromeHeight() int {
	// header, column titles, prompt and help
	h := 3
	if m.header != "" {
		h++
	}
	return h
}

func (m model) listWidth() int {
	if !m.showPreview {
		return m.width
	}
	return m.width - int(float64(m.width)*previewRatio)
}

func (m *model) layout() {
	body := max(m.height-m.chromeHeight(), 1)
	m.viewport.Width = max(m.width-m.listWidth()-2, 0)
	m.viewport.Height = body
	m.input.Width = max(m.width-lipgloss.Width(m.input.Prompt)-12, 1)
}

func (m model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	if m.header != "" {
		b.WriteString(m.styles.banner.Render(m.header))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString(" ")
	b.WriteString(m.status())
	b.WriteString("\n")

	listWidth := m.listWidth()
	clip := lipgloss.NewStyle().MaxWidth(listWidth)
	b.WriteString(clip.Render(m.styles.header.Render("  " + m.columns)))
	b.WriteString("\n")

	body := max(m.height-m.chromeHeight(), 1)
	rows := make([]ui.WorktreeRow, 0, len(m.matches))
	for _, match := range m.matches {
		rows = append(rows, ui.WorktreeRow{Text: match.Item.Text(), Matched: match.Positions})
	}
	list := ui.RenderWorktreeSelector(rows, m.cursor, body, m.styles.view())
	if len(rows) == 0 && !m.streaming {
		list = m.styles.secondary.Render("  No matches.")
	}
	list = lipgloss.NewStyle().Width(listWidth).MaxWidth(listWidth).Height(body).MaxHeight(body).Render(list)

	if m.showPreview {
		pane := m.styles.preview.Height(body).MaxHeight(body).Render(m.viewport.View())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, pane))
	} else {
		b.WriteString(list)
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m model) status() string {
	counter := fmt.Sprintf("%d/%d", len(m.matches), len(m.items))
	if m.streaming {
		return m.spinner.View() + " " + m.styles.secondary.Render(counter)
	}
	return m.styles.secondary.Render(counter)
}
