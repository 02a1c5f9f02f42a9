package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/glimpse"
)

// Styles holds the lipgloss styles the message blocks render with.
// Markdown answers take their colors from the Theme directly.
type Styles struct {
	UserMsg    lipgloss.Style
	Thinking   lipgloss.Style
	Attachment lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
}

// NewStyles derives block styles from t.
func NewStyles(t glimpse.Theme) Styles {
	fg := func(index int) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(ansiColor(index))
	}
	return Styles{
		UserMsg:    fg(t.UserMsg).Bold(true),
		Thinking:   fg(t.Thinking).Faint(true),
		Attachment: fg(t.Attachment),
		Error:      fg(t.Error),
		Muted:      fg(t.Muted).Faint(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
