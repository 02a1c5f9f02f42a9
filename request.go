package glimpse

// Request is the composed multimodal payload for one relay call.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	// History holds the session's prior turns, oldest first. Only their
	// text is sent; image bytes travel with the current question alone.
	History     []Turn
	Question    string
	Image       *Image   // nil = text-only request
	MaxTokens   int      // 0 = provider default
	Temperature *float64 // nil = provider default
}
