// Package anthropic answers image questions with Claude through the
// streaming Messages API.
//
// The image travels as a base64 source block ahead of the question text.
// Earlier turns are replayed as plain text. Each [glimpse.Stream.Next] call
// reads server-sent events until one carries a text or thinking delta.
package anthropic

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// apiCacheControl specifies a cache breakpoint for prompt caching.
type apiCacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// apiRequest is the JSON body sent to the Messages API.
type apiRequest struct {
	Model        string            `json:"model"`
	MaxTokens    int               `json:"max_tokens"`
	Stream       bool              `json:"stream"`
	System       []apiContentBlock `json:"system,omitempty"`
	Messages     []apiMessage      `json:"messages"`
	Temperature  *float64          `json:"temperature,omitempty"`
	CacheControl *apiCacheControl  `json:"cache_control,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

// apiContentBlock is a text or image block. Source is set for images only.
type apiContentBlock struct {
	Type         string           `json:"type"`
	Text         string           `json:"text,omitempty"`
	Source       *apiImageSource  `json:"source,omitempty"`
	CacheControl *apiCacheControl `json:"cache_control,omitempty"`
}

type apiImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Server-sent event payloads. Only the fields the stream reads are decoded.

type sseMessageStart struct {
	Message struct {
		Usage sseUsage `json:"usage"`
	} `json:"message"`
}

// sseUsage is used in message_start events.
// Cache fields are nullable.
type sseUsage struct {
	InputTokens          int  `json:"input_tokens"`
	OutputTokens         int  `json:"output_tokens"`
	CacheReadInputTokens *int `json:"cache_read_input_tokens"`
}

// sseDeltaUsage is used in message_delta events. The counts are cumulative;
// all fields except OutputTokens may be absent or null.
type sseDeltaUsage struct {
	OutputTokens         int  `json:"output_tokens"`
	InputTokens          *int `json:"input_tokens,omitempty"`
	CacheReadInputTokens *int `json:"cache_read_input_tokens,omitempty"`
}

type sseContentBlockDelta struct {
	Delta sseDelta `json:"delta"`
}

type sseDelta struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

type sseMessageDelta struct {
	Delta struct {
		StopReason *string `json:"stop_reason"`
	} `json:"delta"`
	Usage sseDeltaUsage `json:"usage"`
}

// sseError is the body of an "error" event and of a non-200 response.
type sseError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
