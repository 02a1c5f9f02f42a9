package console_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/glimpse/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cat.png"), []byte{1}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte{1}, 0o644))

	c := console.NewCompleter(dir)

	candidates, _ := c.Do([]rune("/ima"), 4)
	require.Len(t, candidates, 1)
	assert.Equal(t, "ge ", string(candidates[0]))

	line := []rune("/image ")
	candidates, _ = c.Do(line, len(line))
	var got []string
	for _, cand := range candidates {
		got = append(got, string(cand))
	}
	assert.Equal(t, []string{filepath.Join(dir, "cat.png") + " "}, got)
}
