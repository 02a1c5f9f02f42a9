package glimpse

// Usage tracks token consumption.
//
// Invariant across all providers:
//
//	InputTokens     = non-cached input tokens
//	CacheReadTokens = tokens served from cache
//
// Total input tokens = InputTokens + CacheReadTokens. Providers clamp to
// zero, max(0, derived), when subtracting to guard against inconsistent
// upstream data.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// Total returns all tokens billed for the call.
func (u Usage) Total() int {
	return u.InputTokens + u.CacheReadTokens + u.OutputTokens
}
