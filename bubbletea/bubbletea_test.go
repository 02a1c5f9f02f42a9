package bubbletea_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/glimpse"
	bt "github.com/fwojciec/glimpse/bubbletea"
	"github.com/stretchr/testify/require"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, ask bt.AskFunc) bt.Model {
	t.Helper()
	return initModelWithSize(t, ask, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, ask bt.AskFunc, width, height int) bt.Model {
	t.Helper()
	m := bt.New(ask, stubLoad, glimpse.NewSession("test"), glimpse.DefaultTheme())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// typeInput types s into the model's input one rune at a time.
func typeInput(t *testing.T, m bt.Model, s string) bt.Model {
	t.Helper()
	for _, r := range s {
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func typeInputString(t *testing.T, ti textinput.Model, s string) textinput.Model {
	t.Helper()
	for _, r := range s {
		ti, _ = ti.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return ti
}

// nopAsk is a mock ask function that answers nothing.
func nopAsk(_ context.Context, _ *glimpse.Session, _ string, _ func(glimpse.Event)) (glimpse.Turn, error) {
	return glimpse.Turn{}, nil
}

// relayAsk adapts a Relay over p into an AskFunc.
func relayAsk(p glimpse.Provider) bt.AskFunc {
	r := glimpse.NewRelay(p)
	return func(ctx context.Context, s *glimpse.Session, question string, onEvent func(glimpse.Event)) (glimpse.Turn, error) {
		return r.Ask(ctx, s, question, nil, glimpse.WithEventHandler(onEvent))
	}
}

// stubLoad pretends every .png or .jpg path exists.
func stubLoad(path string) (glimpse.Image, error) {
	switch {
	case strings.HasSuffix(path, ".png"):
		return glimpse.NewImage(path, []byte("png-bytes"), glimpse.MimeTypePNG)
	case strings.HasSuffix(path, ".jpg"):
		return glimpse.NewImage(path, []byte("jpg-bytes"), glimpse.MimeTypeJPEG)
	}
	return glimpse.Image{}, fmt.Errorf("%s: %w", path, glimpse.ErrUnsupportedFormat)
}
