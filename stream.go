package glimpse

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// String returns a lowercase name for the state.
func (s StreamState) String() string {
	switch s {
	case StreamStateNew:
		return "new"
	case StreamStateStreaming:
		return "streaming"
	case StreamStateComplete:
		return "complete"
	case StreamStateError:
		return "error"
	case StreamStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Provider.Stream().
//
// Response() returns the assembled answer. Behavior by stream state:
//   - StreamStateComplete: complete response, nil error.
//   - StreamStateError: partial response, nil error. StopReason is StopError
//     for transport failures, StopBlocked when a safety filter rejected the
//     prompt, and StopAborted for context cancellation.
//   - StreamStateStreaming: partial response, nil error.
//   - StreamStateNew: zero-value response, ErrStreamNotReady.
//   - StreamStateClosed: partial response with StopReason = StopAborted.
//     Subsequent Next() calls return ErrStreamClosed.
//   - If a terminal state (Complete/Error) was reached before Close(),
//     Response() returns the terminal-state result.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Response() (Response, error)
	Close() error
}
