package ollama

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/glimpse"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

type chunk struct {
	resp api.ChatResponse
	err  error
}

// stream implements [glimpse.Stream] over a callback-driven chat call. The
// call runs in its own goroutine and is cancelled by Close.
type stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	chunks  chan chunk
	logger  *zap.Logger
	state   glimpse.StreamState
	text    strings.Builder
	resp    glimpse.Response
	pending []glimpse.Event
	err     error
}

// Interface compliance check.
var _ glimpse.Stream = (*stream)(nil)

func newStream(ctx context.Context, cancel context.CancelFunc, chat func(api.ChatResponseFunc) error, logger *zap.Logger) *stream {
	s := &stream{
		ctx:    ctx,
		cancel: cancel,
		chunks: make(chan chunk),
		logger: logger,
		state:  glimpse.StreamStateNew,
	}
	go s.run(chat)
	return s
}

func (s *stream) run(chat func(api.ChatResponseFunc) error) {
	defer close(s.chunks)
	err := chat(func(r api.ChatResponse) error {
		select {
		case s.chunks <- chunk{resp: r}:
			return nil
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	})
	if err != nil {
		select {
		case s.chunks <- chunk{err: err}:
		case <-s.ctx.Done():
		}
	}
}

func (s *stream) Next() (glimpse.Event, error) {
	switch s.state {
	case glimpse.StreamStateComplete:
		return nil, io.EOF
	case glimpse.StreamStateError:
		return nil, s.err
	case glimpse.StreamStateClosed:
		return nil, fmt.Errorf("ollama: %w", glimpse.ErrStreamClosed)
	}

	for len(s.pending) == 0 {
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(fmt.Errorf("ollama: %w", err), glimpse.StopAborted, "aborted")
		}
		var c chunk
		var ok bool
		select {
		case <-s.ctx.Done():
			return nil, s.fail(fmt.Errorf("ollama: %w", s.ctx.Err()), glimpse.StopAborted, "aborted")
		case c, ok = <-s.chunks:
		}
		if !ok {
			s.finalize()
			return nil, io.EOF
		}
		if c.err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, s.fail(fmt.Errorf("ollama: %w", ctxErr), glimpse.StopAborted, "aborted")
			}
			return nil, s.fail(fmt.Errorf("ollama: %w", classify(c.err)), glimpse.StopError, "error")
		}
		s.process(c.resp)
	}

	s.state = glimpse.StreamStateStreaming
	evt := s.pending[0]
	s.pending = s.pending[1:]
	return evt, nil
}

func (s *stream) process(r api.ChatResponse) {
	if r.Message.Thinking != "" {
		s.pending = append(s.pending, glimpse.EventThinkingDelta{Delta: r.Message.Thinking})
	}
	if r.Message.Content != "" {
		s.text.WriteString(r.Message.Content)
		s.pending = append(s.pending, glimpse.EventTextDelta{Delta: r.Message.Content})
	}
	if r.Done {
		s.resp.StopReason = mapDoneReason(r.DoneReason)
		s.resp.RawStopReason = r.DoneReason
		s.resp.Usage = glimpse.Usage{
			InputTokens:  r.PromptEvalCount,
			OutputTokens: r.EvalCount,
		}
	}
}

func (s *stream) fail(err error, reason glimpse.StopReason, raw string) error {
	s.state = glimpse.StreamStateError
	s.err = err
	s.resp.Text = s.text.String()
	s.resp.StopReason = reason
	s.resp.RawStopReason = raw
	s.cancel()
	s.logger.Debug("ollama stream failed", zap.Error(err))
	return err
}

func (s *stream) finalize() {
	s.state = glimpse.StreamStateComplete
	s.resp.Text = s.text.String()
	if s.resp.StopReason == "" {
		s.resp.StopReason = glimpse.StopEndTurn
	}
	s.cancel()
	s.logger.Debug("ollama stream complete",
		zap.String("stop_reason", string(s.resp.StopReason)),
		zap.Int("input_tokens", s.resp.Usage.InputTokens),
		zap.Int("output_tokens", s.resp.Usage.OutputTokens),
	)
}

func (s *stream) State() glimpse.StreamState {
	return s.state
}

func (s *stream) Response() (glimpse.Response, error) {
	if s.state == glimpse.StreamStateNew {
		return glimpse.Response{}, fmt.Errorf("ollama: %w", glimpse.ErrStreamNotReady)
	}
	resp := s.resp
	resp.Text = s.text.String()
	return resp, nil
}

func (s *stream) Close() error {
	if s.state != glimpse.StreamStateComplete && s.state != glimpse.StreamStateError {
		s.state = glimpse.StreamStateClosed
		s.resp.StopReason = glimpse.StopAborted
		s.resp.RawStopReason = "aborted"
	}
	s.cancel()
	return nil
}

func mapDoneReason(r string) glimpse.StopReason {
	switch r {
	case "stop", "":
		return glimpse.StopEndTurn
	case "length":
		return glimpse.StopLength
	default:
		return glimpse.StopUnknown
	}
}
