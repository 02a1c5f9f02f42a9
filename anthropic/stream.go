package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/glimpse"
	"go.uber.org/zap"
)

// stream implements [glimpse.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	logger  *zap.Logger
	state   glimpse.StreamState
	text    strings.Builder
	resp    glimpse.Response
	err     error // terminal error, if any
}

// Interface compliance check.
var _ glimpse.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, logger *zap.Logger) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		ctx:     ctx,
		logger:  logger,
		state:   glimpse.StreamStateNew,
	}
}

// Next reads the next semantic event from the SSE stream.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (glimpse.Event, error) {
	switch s.state {
	case glimpse.StreamStateComplete:
		return nil, io.EOF
	case glimpse.StreamStateError:
		return nil, s.err
	case glimpse.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", glimpse.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			return nil, s.terminate(err)
		}

		s.state = glimpse.StreamStateStreaming

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			return nil, s.terminate(err)
		}

		// processEvent may set a terminal state (message_stop).
		if s.state == glimpse.StreamStateComplete {
			s.logger.Debug("anthropic stream complete",
				zap.String("stop_reason", string(s.resp.StopReason)),
				zap.Int("input_tokens", s.resp.Usage.InputTokens),
				zap.Int("output_tokens", s.resp.Usage.OutputTokens),
			)
			return nil, io.EOF
		}

		if evt != nil {
			return evt, nil
		}
		// Non-semantic event (ping, message_start, etc.): keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() glimpse.StreamState {
	return s.state
}

// Response returns the answer assembled so far.
func (s *stream) Response() (glimpse.Response, error) {
	if s.state == glimpse.StreamStateNew {
		return glimpse.Response{}, fmt.Errorf("anthropic: %w", glimpse.ErrStreamNotReady)
	}
	resp := s.resp
	resp.Text = s.text.String()
	return resp, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != glimpse.StreamStateComplete && s.state != glimpse.StreamStateError {
		s.state = glimpse.StreamStateClosed
		s.resp.StopReason = glimpse.StopAborted
		s.resp.RawStopReason = "aborted"
	}
	return s.body.Close()
}

// terminate records a terminal error, sets the stop reason, and returns the
// classified error.
func (s *stream) terminate(err error) error {
	s.state = glimpse.StreamStateError
	switch {
	case s.ctx.Err() != nil:
		s.err = fmt.Errorf("anthropic: %w", s.ctx.Err())
		s.resp.StopReason = glimpse.StopAborted
		s.resp.RawStopReason = "aborted"
	case errors.Is(err, io.EOF):
		// message_stop sets StreamStateComplete before a clean EOF, so a raw
		// EOF means the connection dropped mid-answer.
		s.err = fmt.Errorf("anthropic: %w", glimpse.Transient(io.ErrUnexpectedEOF))
		s.resp.StopReason = glimpse.StopError
		s.resp.RawStopReason = "error"
	default:
		s.err = fmt.Errorf("anthropic: %w", classify(err))
		s.resp.StopReason = glimpse.StopError
		s.resp.RawStopReason = "error"
	}
	s.logger.Debug("anthropic stream failed", zap.Error(s.err))
	return s.err
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line ends the event.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if v, ok := strings.CutPrefix(line, "event: "); ok {
			eventType = v
		} else if v, ok := strings.CutPrefix(line, "data: "); ok {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(v)
		}
		// Comments (lines starting with ':') and unknown fields are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", err
	}

	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a semantic glimpse.Event.
// Returns a nil event for non-semantic events (ping, message_start, etc.).
func (s *stream) processEvent(eventType, data string) (glimpse.Event, error) {
	switch eventType {
	case "message_start":
		return nil, s.handleMessageStart(data)
	case "content_block_delta":
		return s.handleContentBlockDelta(data)
	case "message_delta":
		return nil, s.handleMessageDelta(data)
	case "message_stop":
		s.state = glimpse.StreamStateComplete
		if s.resp.StopReason == "" {
			s.resp.StopReason = glimpse.StopEndTurn
		}
		return nil, nil
	case "error":
		return nil, s.handleError(data)
	default:
		// ping, content_block_start, content_block_stop and unknown events.
		return nil, nil
	}
}

func (s *stream) handleMessageStart(data string) error {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse message_start: %w", err)
	}
	s.resp.Usage.InputTokens = evt.Message.Usage.InputTokens
	s.resp.Usage.OutputTokens = evt.Message.Usage.OutputTokens
	if evt.Message.Usage.CacheReadInputTokens != nil {
		s.resp.Usage.CacheReadTokens = *evt.Message.Usage.CacheReadInputTokens
	}
	return nil
}

func (s *stream) handleContentBlockDelta(data string) (glimpse.Event, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("failed to parse content_block_delta: %w", err)
	}

	switch evt.Delta.Type {
	case "text_delta":
		s.text.WriteString(evt.Delta.Text)
		return glimpse.EventTextDelta{Delta: evt.Delta.Text}, nil
	case "thinking_delta":
		return glimpse.EventThinkingDelta{Delta: evt.Delta.Thinking}, nil
	default:
		// signature_delta and others carry nothing for the reader.
		return nil, nil
	}
}

func (s *stream) handleMessageDelta(data string) error {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse message_delta: %w", err)
	}

	s.resp.Usage.OutputTokens = evt.Usage.OutputTokens
	if evt.Usage.InputTokens != nil {
		s.resp.Usage.InputTokens = *evt.Usage.InputTokens
	}
	if evt.Usage.CacheReadInputTokens != nil {
		s.resp.Usage.CacheReadTokens = *evt.Usage.CacheReadInputTokens
	}

	if evt.Delta.StopReason != nil {
		s.resp.RawStopReason = *evt.Delta.StopReason
		s.resp.StopReason = mapStopReason(*evt.Delta.StopReason)
	}
	return nil
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("failed to parse error event: %w", err)
	}
	return &APIError{Type: evt.Error.Type, Message: evt.Error.Message}
}

func mapStopReason(raw string) glimpse.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return glimpse.StopEndTurn
	case "max_tokens":
		return glimpse.StopLength
	case "refusal":
		return glimpse.StopBlocked
	default:
		return glimpse.StopUnknown
	}
}
