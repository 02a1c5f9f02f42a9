package glimpse

import "context"

// Provider is a strategy pattern interface for multimodal model backends.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
