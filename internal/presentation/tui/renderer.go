package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 80

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width of stdout, or 80 when it is not a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// NewRenderer returns a function that renders dialogue lines as markdown with
// glamour, wrapped to width. Lines are short, so the surrounding blank lines
// glamour adds are trimmed.
func NewRenderer(width int) (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return "", err
		}
		return strings.Trim(out, "\n"), nil
	}, nil
}
