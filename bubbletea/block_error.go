package bubbletea

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/glimpse"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock reports a question that got no answer. The hint line depends
// on the failure class.
type ErrorBlock struct {
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	lines := b.styles.Error.Render(fmt.Sprintf("%s: %v", errorLabel(b.err), b.err))
	if hint := errorHint(b.err); hint != "" {
		lines += "\n" + b.styles.Muted.Render(hint)
	}
	return lipgloss.NewStyle().Width(width).Render(lines)
}

func errorLabel(err error) string {
	switch {
	case glimpse.IsRetryable(err):
		return "Temporary error"
	case errors.Is(err, glimpse.ErrPermanentRemote):
		return "Rejected"
	}
	return "Error"
}

func errorHint(err error) string {
	switch {
	case glimpse.IsRetryable(err):
		return "Temporary failure. Press Enter on an empty line to retry."
	case errors.Is(err, glimpse.ErrUnsupportedFormat):
		return "Only PNG and JPEG images are supported."
	case errors.Is(err, glimpse.ErrSessionBusy):
		return "Wait for the current answer to finish."
	case errors.Is(err, glimpse.ErrPermanentRemote):
		return "Retrying the same question will not help. Rephrase it or load another image."
	}
	return ""
}
