package glimpse

// Event is one increment of a streamed answer. The set is closed: only
// this package defines events. Failures arrive through the error returned
// by [Stream.Next], never as events.
type Event interface {
	event()
}

// EventTextDelta carries the next piece of answer text.
type EventTextDelta struct {
	Delta string
}

// EventThinkingDelta carries reasoning text from models that stream it.
// Front ends may show it, but it is never stored in a Turn.
type EventThinkingDelta struct {
	Delta string
}

func (EventTextDelta) event()     {}
func (EventThinkingDelta) event() {}

var (
	_ Event = EventTextDelta{}
	_ Event = EventThinkingDelta{}
)
