package ollama

import (
	"context"

	"github.com/fwojciec/glimpse"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// NewStreamFromFunc exposes stream construction for tests. chat plays the
// role of api.Client.Chat.
func NewStreamFromFunc(ctx context.Context, chat func(api.ChatResponseFunc) error) glimpse.Stream {
	ctx, cancel := context.WithCancel(ctx)
	return newStream(ctx, cancel, chat, zap.NewNop())
}

// BuildOptions exposes buildOptions for tests.
func BuildOptions(req glimpse.Request) map[string]any {
	return buildOptions(req)
}

// Classify exposes classify for tests.
func Classify(err error) error {
	return classify(err)
}
