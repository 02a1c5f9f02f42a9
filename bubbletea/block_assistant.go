package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders a streamed answer as markdown. Text up to the
// last paragraph break is rendered once per width and cached; only the open
// paragraph is re-rendered on each delta.
type AssistantTextBlock struct {
	content strings.Builder
	theme   glimpse.Theme

	stable   string
	rendered map[int]string
}

// NewAssistantTextBlock creates a new block for a streaming answer.
func NewAssistantTextBlock(theme glimpse.Theme) *AssistantTextBlock {
	return &AssistantTextBlock{
		theme:    theme,
		rendered: make(map[int]string),
	}
}

// Append adds an answer text delta.
func (b *AssistantTextBlock) Append(text string) {
	b.content.WriteString(text)
	b.advanceStable()
}

// Text returns the raw markdown received so far.
func (b *AssistantTextBlock) Text() string {
	return b.content.String()
}

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	head := b.renderStable(width)
	tail := b.openText()
	if hasUnclosedFence(tail) {
		tail += "\n```"
	}
	if strings.TrimSpace(tail) == "" {
		return head
	}
	tailRendered := goldmark.Render(tail, width, b.theme)
	if strings.TrimSpace(tailRendered) == "" {
		return head
	}
	if head == "" {
		return tailRendered
	}
	return strings.TrimRight(head, "\n") + "\n\n" + strings.TrimLeft(tailRendered, "\n")
}

// advanceStable moves the stable prefix to the last paragraph break that is
// not inside an open code fence.
func (b *AssistantTextBlock) advanceStable() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		if prefix := raw[:idx]; !hasUnclosedFence(prefix) {
			if prefix != b.stable {
				b.stable = prefix
				clear(b.rendered)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderStable(width int) string {
	if width <= 0 || b.stable == "" {
		return ""
	}
	if cached, ok := b.rendered[width]; ok {
		return cached
	}
	out := goldmark.Render(b.stable, width, b.theme)
	b.rendered[width] = out
	return out
}

func (b *AssistantTextBlock) openText() string {
	raw := b.content.String()
	if b.stable == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.stable+"\n\n")
}

// hasUnclosedFence counts "```" occurrences; an odd count means a fence is
// open. Triple backticks inside inline code are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
