package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the threadbare banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Warm gradient, loosely the colour of old rope
	lines := []struct{ text, color string }{
		{" _   _                        _ _                      ", "#fbbf24"},
		{"| |_| |__  _ __ ___  __ _  __| | |__   __ _ _ __ ___  ", "#f59e0b"},
		{"| __| '_ \\| '__/ _ \\/ _` |/ _` | '_ \\ / _` | '__/ _ \\ ", "#f97316"},
		{"| |_| | | | | |  __/ (_| | (_| | |_) | (_| | | |  __/ ", "#ea580c"},
		{" \\__|_| |_|_|  \\___|\\__,_|\\__,_|_.__/ \\__,_|_|  \\___| ", "#c2410c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
