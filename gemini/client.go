package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/glimpse"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ glimpse.Provider = (*Client)(nil)

// Client implements [glimpse.Provider] for the Google Gemini API.
type Client struct {
	client   *genai.Client
	model    string
	baseURL  string
	thinking bool
	logger   *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.0-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithThinking asks thinking-capable models to stream their reasoning as
// [glimpse.EventThinkingDelta] events.
func WithThinking(enabled bool) Option {
	return func(c *Client) { c.thinking = enabled }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a new Gemini [Client] with the given API key and options.
// An empty key fails with [glimpse.ErrMissingCredential].
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is empty: %w", glimpse.ErrMissingCredential)
	}
	c := &Client{
		model:  defaultModel,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Model returns the default model ID.
func (c *Client) Model() string { return c.model }

// Stream sends a streaming request to the Gemini API and returns a
// [glimpse.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := ConvertRequest(req)
	config := buildConfig(req, c.thinking)

	c.logger.Debug("gemini request",
		zap.String("model", model),
		zap.Int("history", len(req.History)),
		zap.Bool("image", req.Image != nil),
	)

	iter := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return newStream(ctx, iter, c.logger), nil
}

func buildConfig(req glimpse.Request, thinking bool) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if thinking {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertRequest converts a glimpse Request to genai Contents: one user and
// one model content per prior turn, then the current question followed by
// the image, if any. Exported for testing.
func ConvertRequest(req glimpse.Request) []*genai.Content {
	result := make([]*genai.Content, 0, 2*len(req.History)+1)
	for _, t := range req.History {
		result = append(result, &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: t.Question}},
		})
		if t.Answer != "" {
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: t.Answer}},
			})
		}
	}

	current := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Question}},
	}
	if req.Image != nil {
		current.Parts = append(current.Parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Image.MimeType,
				Data:     req.Image.Data,
			},
		})
	}
	return append(result, current)
}
