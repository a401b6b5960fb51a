// Package selector is an interactive fuzzy picker that accepts items while
// it is already running and shows an on-demand preview of the highlighted
// item.
package selector

import (
	"context"
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	DefaultPrompt = "🔍 Select > "
)

type Options struct {
	// Query is the initial query.
	Query string
	// SelectOne accepts the only match without starting the UI once the
	// source is exhausted.
	SelectOne bool
	Preview   bool
	Header    string
	// Columns is printed above the list as column titles.
	Columns string
	Prompt  string
	// Input defaults to the controlling terminal.
	Input io.Reader
	// Output defaults to stderr.
	Output    io.Writer
	AltScreen bool
}

func (o Options) prompt() string {
	if o.Prompt == "" {
		return DefaultPrompt
	}
	return o.Prompt
}

func (o Options) header() string {
	return o.Header
}

func (o Options) output() io.Writer {
	if o.Output == nil {
		return os.Stderr
	}
	return o.Output
}

// Run shows the selector over the items received from source until the
// user accepts or cancels. It returns nil when nothing was selected. The
// producer behind source is never waited for once the user is done.
func Run(ctx context.Context, source <-chan Item, opts Options) (Item, error) {
	var seed []Item
	if opts.SelectOne {
		var err error
		seed, err = drain(ctx, source)
		if err != nil {
			return nil, err
		}
		source = nil
		if matches := Filter(opts.Query, seed); len(matches) == 1 {
			return matches[0].Item, nil
		}
	}

	out := opts.output()
	renderer := lipgloss.NewRenderer(out, termenv.WithColorCache(true))
	m := newModel(source, seed, opts, newStyles(renderer))

	teaOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}
	if opts.Input != nil {
		teaOpts = append(teaOpts, tea.WithInput(opts.Input))
	} else {
		teaOpts = append(teaOpts, tea.WithInputTTY())
	}
	if opts.AltScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}
	final, err := tea.NewProgram(m, teaOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	fm, ok := final.(model)
	if !ok {
		return nil, nil
	}
	return fm.selected, nil
}

func drain(ctx context.Context, source <-chan Item) ([]Item, error) {
	var items []Item
	if source == nil {
		return items, nil
	}
	for {
		select {
		case item, ok := <-source:
			if !ok {
				return items, nil
			}
			items = append(items, item)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
