package removal

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const confirmFieldKey = "confirm_remove"

func huhTheme() *huh.Theme {
	t := *huh.ThemeCharm()
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(lipgloss.Color("#7D56F4"))
	t.Focused.Next = t.Focused.FocusedButton
	return &t
}

func newConfirmForm(title string, description string, result *bool) *huh.Form {
	confirm := huh.NewConfirm().
		Key(confirmFieldKey).
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(result)

	return huh.NewForm(huh.NewGroup(confirm)).
		WithTheme(huhTheme()).
		WithShowHelp(false)
}

// Prompt returns a Confirm func that asks on out and reads answers from in.
// Accessible mode asks a plain y/N question instead of drawing the form.
func Prompt(ctx context.Context, in io.Reader, out io.Writer, accessible bool) func(branch string, path string) (bool, error) {
	return func(branch string, path string) (bool, error) {
		ok := false
		form := newConfirmForm(
			fmt.Sprintf("Remove worktree %s?", branch),
			fmt.Sprintf("%s will be deleted along with its local branch.", path),
			&ok,
		).WithInput(in).WithOutput(out).WithAccessible(accessible)
		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, err
		}
		return ok, nil
	}
}
