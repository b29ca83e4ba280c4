package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the sopflow ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___  ___  _ __  / _| | _____      __", "#34d399"},
		{" / __|/ _ \\| '_ \\| |_| |/ _ \\ \\ /\\ / /", "#2dd4bf"},
		{" \\__ \\ (_) | |_) |  _| | (_) \\ V  V / ", "#22d3ee"},
		{" |___/\\___/| .__/|_| |_|\\___/ \\_/\\_/  ", "#38bdf8"},
		{"           |_|                        ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
