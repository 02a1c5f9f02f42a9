package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock shows a submitted question. A question about an image
// carried over from an earlier turn names that image, since no attachment
// block precedes it.
type UserMessageBlock struct {
	question string
	carried  string
	styles   Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(question string, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{question: question, styles: styles}
}

// About marks the question as asked about the carried image name.
func (b *UserMessageBlock) About(name string) *UserMessageBlock {
	b.carried = name
	return b
}

func (b *UserMessageBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *UserMessageBlock) View(width int) string {
	line := b.styles.UserMsg.Render("> ") + b.question
	if b.carried != "" {
		line += b.styles.Muted.Render("  (about " + b.carried + ")")
	}
	return lipgloss.NewStyle().Width(width).Render(line)
}
