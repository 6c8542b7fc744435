package format

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorSuccess  = lipgloss.Color("#10B981")
	ColorRedirect = lipgloss.Color("#3B82F6")
	ColorWarning  = lipgloss.Color("#F59E0B")
	ColorError    = lipgloss.Color("#EF4444")
	ColorMuted    = lipgloss.Color("#6B7280")
)

// Status renders "200 OK" style text, colored by status class on a TTY.
// A zero code renders as "error".
func Status(code int, isTTY bool) string {
	text := "error"
	if code > 0 {
		text = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}
	if !isTTY {
		return text
	}

	var color lipgloss.Color
	switch {
	case code == 0 || code >= 500:
		color = ColorError
	case code >= 400:
		color = ColorWarning
	case code >= 300:
		color = ColorRedirect
	default:
		color = ColorSuccess
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}

// Muted renders secondary text in gray on a TTY.
func Muted(s string, isTTY bool) string {
	if !isTTY {
		return s
	}
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(s)
}
