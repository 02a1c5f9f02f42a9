package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ Collapsible = (*ThinkingBlock)(nil)

// ThinkingBlock holds the model's reasoning about the image. It starts
// folded; the header counts the reasoning lines so far.
type ThinkingBlock struct {
	buf    strings.Builder
	folded bool
	styles Styles
}

// NewThinkingBlock creates a folded ThinkingBlock.
func NewThinkingBlock(styles Styles) *ThinkingBlock {
	return &ThinkingBlock{folded: true, styles: styles}
}

// Append adds a reasoning delta.
func (b *ThinkingBlock) Append(delta string) {
	b.buf.WriteString(delta)
}

// Collapsed reports whether the reasoning is hidden.
func (b *ThinkingBlock) Collapsed() bool { return b.folded }

func (b *ThinkingBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.folded = !b.folded
	}
	return b, nil
}

func (b *ThinkingBlock) View(width int) string {
	box := lipgloss.NewStyle().Width(width)
	text := strings.TrimSpace(b.buf.String())

	arrow, hint := "▼", "Tab to fold"
	if b.folded {
		arrow, hint = "▶", "Tab to unfold"
	}
	header := fmt.Sprintf("%s Looking closer", arrow)
	if n := strings.Count(text, "\n") + 1; text != "" {
		header += fmt.Sprintf(" · %d %s", n, plural(n, "line"))
	}
	header += " (" + hint + ")"

	out := b.styles.Thinking.Render(box.Render(header))
	if b.folded || text == "" {
		return out
	}
	return out + "\n" + b.styles.Thinking.Render(box.Render(text))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
