package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fwojciec/glimpse"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ glimpse.Provider = (*Client)(nil)

// Client implements [glimpse.Provider] for the Ollama chat API.
type Client struct {
	client     *api.Client
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model name. Default is llava.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets the HTTP client used to reach the server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a [Client] for the Ollama server at host. An empty host means
// the default local server.
func New(host string, opts ...Option) (*Client, error) {
	c := &Client{
		model:      defaultModel,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if host == "" {
		host = defaultHost
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ollama: invalid host %q: %w", host, glimpse.ErrValidation)
	}
	c.client = api.NewClient(u, c.httpClient)
	return c, nil
}

// Model returns the default model name.
func (c *Client) Model() string { return c.model }

// Stream starts a streaming chat request and returns a [glimpse.Stream]
// that emits semantic events. Request failures surface from Next.
func (c *Client) Stream(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	streaming := true
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: ConvertRequest(req),
		Stream:   &streaming,
		Options:  buildOptions(req),
	}

	c.logger.Debug("ollama request",
		zap.String("model", model),
		zap.Int("history", len(req.History)),
		zap.Bool("image", req.Image != nil),
	)

	ctx, cancel := context.WithCancel(ctx)
	chat := func(fn api.ChatResponseFunc) error {
		return c.client.Chat(ctx, chatReq, fn)
	}
	return newStream(ctx, cancel, chat, c.logger), nil
}

// ConvertRequest converts a glimpse Request to Ollama chat messages: the
// system prompt, one user and one assistant message per prior turn, then the
// current question carrying the image, if any. Exported for testing.
func ConvertRequest(req glimpse.Request) []api.Message {
	msgs := make([]api.Message, 0, 2*len(req.History)+2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, t := range req.History {
		msgs = append(msgs, api.Message{Role: "user", Content: t.Question})
		if t.Answer != "" {
			msgs = append(msgs, api.Message{Role: "assistant", Content: t.Answer})
		}
	}
	current := api.Message{Role: "user", Content: req.Question}
	if req.Image != nil {
		current.Images = []api.ImageData{req.Image.Data}
	}
	return append(msgs, current)
}

func buildOptions(req glimpse.Request) map[string]any {
	opts := map[string]any{}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}
