package format

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout should get terminal formatting.
func IsTTY() bool {
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether w is a color-capable terminal. NO_COLOR and a
// dumb or empty TERM disable color.
func IsTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if t := os.Getenv("TERM"); t == "dumb" || t == "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
