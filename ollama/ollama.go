// Package ollama implements [glimpse.Provider] for a local Ollama server
// running a multimodal model such as llava.
//
// The Ollama client pushes streamed chunks into a callback; the adapter runs
// the chat call in a goroutine and hands chunks to the pull-based
// [glimpse.Stream] through a channel.
package ollama

const (
	defaultModel = "llava"
	defaultHost  = "http://127.0.0.1:11434"
)
