package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/glimpse"
	bt "github.com/fwojciec/glimpse/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestAssistantTextBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("renders markdown", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		block.Append("a **red** bicycle")
		view := block.View(80)
		assert.Contains(t, view, "red")
		assert.Contains(t, view, "bicycle")
		assert.NotContains(t, view, "**")
	})

	t.Run("append accumulates deltas", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		block.Append("a red ")
		block.Append("bicycle")
		assert.Equal(t, "a red bicycle", block.Text())
		assert.Contains(t, block.View(80), "a red bicycle")
	})

	t.Run("finalized paragraph stays while trailing text streams", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		block.Append("first paragraph\n\n")
		block.Append("trailing")
		view := block.View(80)
		assert.Contains(t, view, "first paragraph")
		assert.Contains(t, view, "trailing")
		assert.Less(t, strings.Index(view, "first paragraph"), strings.Index(view, "trailing"))
	})

	t.Run("width change re-renders cached finalized content", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		block.Append("word1 word2 word3 word4 word5 word6\n\ntail")
		narrow := block.View(20)
		wide := block.View(80)
		assert.NotEqual(t, strings.Count(narrow, "\n"), strings.Count(wide, "\n"))
	})

	t.Run("open code fence renders as code while streaming", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		block.Append("Text in the image:\n\n```\nEXIT")
		view := block.View(80)
		assert.Contains(t, view, "EXIT")
		assert.NotContains(t, view, "```")
	})

	t.Run("paragraph break inside fence is not finalized", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		block.Append("```\nline one\n\nline two\n```")
		view := block.View(80)
		assert.Contains(t, view, "line one")
		assert.Contains(t, view, "line two")
		assert.NotContains(t, view, "```")
	})

	t.Run("empty block renders nothing", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(glimpse.DefaultTheme())
		assert.Empty(t, block.View(80))
	})
}
