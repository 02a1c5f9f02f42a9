package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// MessageBlock is one piece of the transcript: an attachment, a question,
// an answer, or a notice. View takes the viewport width so the model owns
// layout.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// Collapsible is a block that Tab can fold and unfold.
type Collapsible interface {
	MessageBlock
	Collapsed() bool
}

// ToggleMsg folds or unfolds the focused Collapsible block.
type ToggleMsg struct{}

func isCollapsible(b MessageBlock) bool {
	_, ok := b.(Collapsible)
	return ok
}

// joinBlocks renders blocks top to bottom, one newline apart.
func joinBlocks(blocks []MessageBlock, width int) string {
	views := make([]string, len(blocks))
	for i, b := range blocks {
		views[i] = b.View(width)
	}
	return strings.Join(views, "\n")
}
