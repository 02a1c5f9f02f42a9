package mock

import (
	"io"
	"strings"

	"github.com/fwojciec/glimpse"
)

// Interface compliance check.
var _ glimpse.Stream = (*Stream)(nil)

// Stream is a test double for glimpse.Stream.
// Set the function fields for the methods you need. NextFn and ResponseFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because callers commonly defer stream.Close()
// and these methods rarely need custom behavior.
type Stream struct {
	NextFn     func() (glimpse.Event, error)
	StateFn    func() glimpse.StreamState
	ResponseFn func() (glimpse.Response, error)
	CloseFn    func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (glimpse.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() glimpse.StreamState {
	if s.StateFn == nil {
		return glimpse.StreamStateNew
	}
	return s.StateFn()
}

// Response delegates to ResponseFn.
func (s *Stream) Response() (glimpse.Response, error) {
	return s.ResponseFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// TextStream returns a Stream that emits each chunk as an EventTextDelta,
// then io.EOF, and reports the joined chunks as a complete response.
func TextStream(chunks ...string) *Stream {
	return EventStream(textEvents(chunks), nil)
}

// FailingStream returns a Stream that emits chunks and then fails with err.
func FailingStream(err error, chunks ...string) *Stream {
	return EventStream(textEvents(chunks), err)
}

// EventStream returns a Stream that emits events in order, then returns
// err, or io.EOF when err is nil. Text deltas are joined into the response.
func EventStream(events []glimpse.Event, err error) *Stream {
	var (
		i     int
		text  strings.Builder
		state = glimpse.StreamStateNew
	)
	return &Stream{
		NextFn: func() (glimpse.Event, error) {
			if i < len(events) {
				evt := events[i]
				i++
				if td, ok := evt.(glimpse.EventTextDelta); ok {
					text.WriteString(td.Delta)
				}
				state = glimpse.StreamStateStreaming
				return evt, nil
			}
			if err != nil {
				state = glimpse.StreamStateError
				return nil, err
			}
			state = glimpse.StreamStateComplete
			return nil, io.EOF
		},
		StateFn: func() glimpse.StreamState { return state },
		ResponseFn: func() (glimpse.Response, error) {
			switch state {
			case glimpse.StreamStateNew:
				return glimpse.Response{}, glimpse.ErrStreamNotReady
			case glimpse.StreamStateError:
				return glimpse.Response{Text: text.String(), StopReason: glimpse.StopError}, nil
			}
			return glimpse.Response{Text: text.String(), StopReason: glimpse.StopEndTurn, RawStopReason: "stop"}, nil
		},
	}
}

func textEvents(chunks []string) []glimpse.Event {
	events := make([]glimpse.Event, len(chunks))
	for i, c := range chunks {
		events[i] = glimpse.EventTextDelta{Delta: c}
	}
	return events
}
