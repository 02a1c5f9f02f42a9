package gemini

import (
	"context"
	"iter"

	"github.com/fwojciec/glimpse"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// NewStreamFromIter exposes stream construction for tests.
func NewStreamFromIter(ctx context.Context, it iter.Seq2[*genai.GenerateContentResponse, error]) glimpse.Stream {
	return newStream(ctx, it, zap.NewNop())
}

// BuildConfig exposes buildConfig for tests.
func BuildConfig(req glimpse.Request, thinking bool) *genai.GenerateContentConfig {
	return buildConfig(req, thinking)
}

// Classify exposes classify for tests.
func Classify(err error) error {
	return classify(err)
}
