package glimpse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Relay sends composed requests to a Provider and records each successful
// answer as a new Turn. A failed call leaves the Session untouched.
type Relay struct {
	provider     Provider
	systemPrompt string
	model        string
	maxTokens    int
	temperature  *float64
	now          func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(r *Relay) { r.systemPrompt = prompt }
}

// WithModel sets the model ID for every request.
// Empty string means the provider uses its default model.
func WithModel(model string) Option {
	return func(r *Relay) { r.model = model }
}

// WithMaxTokens caps the answer length. Zero means provider default.
func WithMaxTokens(n int) Option {
	return func(r *Relay) { r.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *Relay) { r.temperature = &t }
}

// WithClock replaces time.Now for Turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// NewRelay creates a Relay for the given provider.
func NewRelay(provider Provider, opts ...Option) *Relay {
	r := &Relay{
		provider:     provider,
		systemPrompt: DefaultSystemPrompt,
		now:          time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// AskOption configures a single Ask invocation.
type AskOption func(*askConfig)

type askConfig struct {
	onEvent func(Event)
}

// WithEventHandler sets a callback that receives each streaming event during
// the call. If nil or not set, events are silently discarded.
func WithEventHandler(h func(Event)) AskOption {
	return func(c *askConfig) {
		c.onEvent = h
	}
}

// Ask relays question, with img or the session's last image, to the model.
// On success it appends exactly one Turn to s and returns it. On failure the
// session is unchanged and the error is classified: see IsRetryable.
func (r *Relay) Ask(ctx context.Context, s *Session, question string, img *Image, opts ...AskOption) (Turn, error) {
	var cfg askConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	snap, err := s.acquire()
	if err != nil {
		return Turn{}, err
	}
	defer s.release()

	req, attached, err := compose(snap, question, img)
	if err != nil {
		return Turn{}, err
	}
	req.Model = r.model
	req.SystemPrompt = r.systemPrompt
	req.MaxTokens = r.maxTokens
	req.Temperature = r.temperature
	if err := req.Validate(); err != nil {
		return Turn{}, err
	}

	askedAt := r.now()
	resp, err := r.relay(ctx, req, &cfg)
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{
		Question:      req.Question,
		Image:         req.Image,
		Attached:      attached,
		Answer:        resp.Text,
		StopReason:    resp.StopReason,
		RawStopReason: resp.RawStopReason,
		Usage:         resp.Usage,
		AskedAt:       askedAt,
		AnsweredAt:    r.now(),
	}
	s.commit(turn, snap)
	return turn, nil
}

// relay performs one streaming exchange with the provider.
func (r *Relay) relay(ctx context.Context, req Request, cfg *askConfig) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, Classify(err)
	}

	stream, err := r.provider.Stream(ctx, req)
	if err != nil {
		return Response{}, classifyWithContext(ctx, err)
	}
	defer stream.Close()

	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Response{}, classifyWithContext(ctx, err)
		}
		if cfg.onEvent != nil {
			cfg.onEvent(evt)
		}
	}

	resp, err := stream.Response()
	if err != nil {
		return Response{}, classifyWithContext(ctx, err)
	}
	switch {
	case resp.StopReason.Failed():
		return Response{}, Permanent(fmt.Errorf("response stopped: %s", resp.RawStopReason))
	case strings.TrimSpace(resp.Text) == "":
		return Response{}, Permanent(errors.New("empty response"))
	}
	return resp, nil
}

// classifyWithContext attributes err to ctx when the context ended first, so
// that deadlines surface as transient failures even when the provider
// reports them opaquely.
func classifyWithContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return Classify(err)
}
