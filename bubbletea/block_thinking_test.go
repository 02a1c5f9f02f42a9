package bubbletea_test

import (
	"testing"

	"github.com/fwojciec/glimpse"
	bt "github.com/fwojciec/glimpse/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestThinkingBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("collapsed shows indicator and label", func(t *testing.T) {
		t.Parallel()
		block := bt.NewThinkingBlock(bt.NewStyles(glimpse.DefaultTheme()))
		block.Append("the label is upside down")
		view := block.View(80)
		assert.Contains(t, view, "▶")
		assert.Contains(t, view, "Looking closer")
		assert.NotContains(t, view, "upside down")
	})

	t.Run("toggle expands and collapses", func(t *testing.T) {
		t.Parallel()
		block := bt.NewThinkingBlock(bt.NewStyles(glimpse.DefaultTheme()))
		block.Append("the label is upside down")

		updated, _ := block.Update(bt.ToggleMsg{})
		view := updated.View(80)
		assert.Contains(t, view, "▼")
		assert.Contains(t, view, "upside down")

		updated, _ = updated.Update(bt.ToggleMsg{})
		assert.NotContains(t, updated.View(80), "upside down")
	})

	t.Run("ignores other messages", func(t *testing.T) {
		t.Parallel()
		block := bt.NewThinkingBlock(bt.NewStyles(glimpse.DefaultTheme()))
		block.Append("hidden")
		updated, cmd := block.Update("noise")
		assert.Nil(t, cmd)
		assert.NotContains(t, updated.View(80), "hidden")
	})

	t.Run("header counts reasoning lines", func(t *testing.T) {
		t.Parallel()
		block := bt.NewThinkingBlock(bt.NewStyles(glimpse.DefaultTheme()))
		assert.True(t, block.Collapsed())
		assert.NotContains(t, block.View(80), "line", "no count before any reasoning")

		block.Append("first look\n")
		block.Append("second look")
		assert.Contains(t, block.View(80), "2 lines")
		assert.Contains(t, block.View(80), "Tab to unfold")

		updated, _ := block.Update(bt.ToggleMsg{})
		assert.False(t, updated.(bt.Collapsible).Collapsed())
		assert.Contains(t, updated.View(80), "Tab to fold")
	})
}
