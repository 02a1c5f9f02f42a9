package console

import (
	"errors"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/fwojciec/glimpse/fs"
)

// maxCompletions bounds how many image paths /image completion offers.
const maxCompletions = 200

// Readline wraps a readline.Instance so that Ctrl+C maps to ErrInterrupt.
type Readline struct {
	*readline.Instance
}

// NewReadline creates a line editor with history and tab completion of
// commands and image paths under root.
func NewReadline(root, historyFile string) (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		AutoComplete:    NewCompleter(root),
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return nil, err
	}
	return &Readline{Instance: rl}, nil
}

// Readline implements LineReader.
func (r *Readline) Readline() (string, error) {
	line, err := r.Instance.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupt
	}
	return line, err
}

// NewCompleter completes command names, and image files under root after
// /image.
func NewCompleter(root string) *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/image", readline.PcItemDynamic(func(string) []string {
			paths, err := fs.FindImages(root, maxCompletions)
			if err != nil {
				return nil
			}
			for i, p := range paths {
				paths[i] = filepath.Join(root, p)
			}
			return paths
		})),
		readline.PcItem("/retry"),
		readline.PcItem("/history"),
		readline.PcItem("/new"),
		readline.PcItem("/help"),
		readline.PcItem("/quit"),
	)
}
