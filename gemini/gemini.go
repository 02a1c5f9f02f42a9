// Package gemini implements [glimpse.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between glimpse's
// domain types and the Gemini API types. Streaming uses the SDK's iter.Seq2
// iterator, wrapped into the pull-based [glimpse.Stream] interface.
package gemini

const (
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 8192
)
