// Package mock provides test doubles for glimpse interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/glimpse"
)

// Interface compliance check.
var _ glimpse.Provider = (*Provider)(nil)

// Provider is a test double for glimpse.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req glimpse.Request) (glimpse.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Answering returns a Provider that answers every request with answer,
// streamed as a single text delta.
func Answering(answer string) *Provider {
	return &Provider{
		StreamFn: func(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
			return TextStream(answer), nil
		},
	}
}
