// Package bubbletea provides a Bubble Tea TUI for chatting about images.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/glimpse"
)

// AskFunc relays one question about the session's image. The onEvent
// callback is called for each streaming event. The function blocks until the
// answer is complete or the context is cancelled, and appends the Turn to the
// session only on success.
type AskFunc func(ctx context.Context, session *glimpse.Session, question string, onEvent func(glimpse.Event)) (glimpse.Turn, error)

// LoadFunc reads the image file at path for /image.
type LoadFunc func(path string) (glimpse.Image, error)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits and returns the final model. Cancelling ctx quits the
// program.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// StreamEventMsg wraps a streaming event for delivery to the Bubble Tea model.
type StreamEventMsg struct {
	Event glimpse.Event
}

// AskDoneMsg signals that a relay call has completed.
type AskDoneMsg struct {
	Turn glimpse.Turn
	Err  error
}
