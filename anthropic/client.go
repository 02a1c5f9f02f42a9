package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/glimpse"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ glimpse.Provider = (*Client)(nil)

// Client implements [glimpse.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID. Default is claude-sonnet-4-20250514.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a new Anthropic [Client] with the given API key and options.
// An empty key fails with [glimpse.ErrMissingCredential].
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is empty: %w", glimpse.ErrMissingCredential)
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the default model ID.
func (c *Client) Model() string { return c.model }

// Stream sends a streaming request to the Messages API and returns a
// [glimpse.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
	body, err := c.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	c.logger.Debug("anthropic request",
		zap.Int("history", len(req.History)),
		zap.Bool("image", req.Image != nil),
		zap.Int("bytes", len(body)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", classify(err))
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := parseHTTPError(resp)
		c.logger.Debug("anthropic request failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("anthropic: %w", classify(err))
	}

	return newStream(ctx, resp.Body, c.logger), nil
}

func (c *Client) buildRequestBody(req glimpse.Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      convertSystem(req.SystemPrompt),
		Messages:    convertRequest(req),
		Temperature: req.Temperature,
	}
	injectCacheMarkers(&apiReq)

	return json.Marshal(apiReq)
}

// convertSystem converts a system prompt string to content blocks.
// Returns nil when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: prompt}}
}

// injectCacheMarkers sets cache_control breakpoints on the request: one at
// the top level for the growing message window, one on the system prompt.
func injectCacheMarkers(req *apiRequest) {
	// cc is shared across breakpoints; it is read-only after assignment.
	cc := &apiCacheControl{Type: "ephemeral"}
	req.CacheControl = cc
	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
}

// convertRequest converts a glimpse Request to Messages API messages: one
// user and one assistant message per prior turn, then the current question.
// The image block precedes the question text.
func convertRequest(req glimpse.Request) []apiMessage {
	msgs := make([]apiMessage, 0, 2*len(req.History)+1)
	for _, t := range req.History {
		msgs = append(msgs, textMessage("user", t.Question))
		if t.Answer != "" {
			msgs = append(msgs, textMessage("assistant", t.Answer))
		}
	}
	current := apiMessage{Role: "user"}
	if req.Image != nil {
		current.Content = append(current.Content, apiContentBlock{
			Type: "image",
			Source: &apiImageSource{
				Type:      "base64",
				MediaType: req.Image.MimeType,
				Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}
	current.Content = append(current.Content, apiContentBlock{Type: "text", Text: req.Question})
	return append(msgs, current)
}

func textMessage(role, text string) apiMessage {
	return apiMessage{Role: role, Content: []apiContentBlock{{Type: "text", Text: text}}}
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
	}
	var apiErr sseError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Type == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return &APIError{StatusCode: resp.StatusCode, Type: apiErr.Error.Type, Message: apiErr.Error.Message}
}
