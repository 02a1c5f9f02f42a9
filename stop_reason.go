package glimpse

// StopReason is the provider-neutral reason an answer ended.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn" // the model finished its answer
	StopLength  StopReason = "length"   // max tokens reached; the answer is truncated
	StopBlocked StopReason = "blocked"  // safety filters withheld the answer or the image
	StopError   StopReason = "error"
	StopAborted StopReason = "aborted"
	StopUnknown StopReason = "unknown"
)

// Failed reports whether the answer must not become a Turn.
func (r StopReason) Failed() bool {
	return r == StopError || r == StopBlocked
}
