package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/glimpse"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// stream implements [glimpse.Stream] by wrapping the genai SDK's streaming
// iterator. One SDK chunk may carry several parts; the resulting events are
// queued and handed out one per Next call.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	logger  *zap.Logger
	state   glimpse.StreamState
	text    strings.Builder
	resp    glimpse.Response
	pending []glimpse.Event
	err     error
}

// Interface compliance check.
var _ glimpse.Stream = (*stream)(nil)

func newStream(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error], logger *zap.Logger) *stream {
	next, stop := iter.Pull2(iterFn)
	return &stream{
		ctx:    ctx,
		pull:   next,
		stop:   stop,
		logger: logger,
		state:  glimpse.StreamStateNew,
	}
}

func (s *stream) Next() (glimpse.Event, error) {
	switch s.state {
	case glimpse.StreamStateComplete:
		return nil, io.EOF
	case glimpse.StreamStateError:
		return nil, s.err
	case glimpse.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", glimpse.ErrStreamClosed)
	}

	for len(s.pending) == 0 {
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(fmt.Errorf("gemini: %w", err), glimpse.StopAborted, "aborted")
		}
		chunk, err, ok := s.pull()
		if !ok {
			s.finalize()
			return nil, io.EOF
		}
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, s.fail(fmt.Errorf("gemini: %w", ctxErr), glimpse.StopAborted, "aborted")
			}
			return nil, s.fail(fmt.Errorf("gemini: %w", classify(err)), glimpse.StopError, "error")
		}
		if err := s.process(chunk); err != nil {
			return nil, err
		}
	}

	s.state = glimpse.StreamStateStreaming
	evt := s.pending[0]
	s.pending = s.pending[1:]
	return evt, nil
}

// process folds one SDK chunk into the response and queues its events.
func (s *stream) process(chunk *genai.GenerateContentResponse) error {
	if chunk == nil {
		return nil
	}
	if chunk.UsageMetadata != nil {
		s.resp.Usage = convertUsage(chunk.UsageMetadata)
	}
	if len(chunk.Candidates) == 0 {
		if fb := chunk.PromptFeedback; fb != nil && fb.BlockReason != "" {
			reason := string(fb.BlockReason)
			err := glimpse.Permanent(fmt.Errorf("prompt blocked: %s", reason))
			return s.fail(fmt.Errorf("gemini: %w", err), glimpse.StopBlocked, reason)
		}
		return nil
	}

	cand := chunk.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if part.Thought {
				s.pending = append(s.pending, glimpse.EventThinkingDelta{Delta: part.Text})
				continue
			}
			s.text.WriteString(part.Text)
			s.pending = append(s.pending, glimpse.EventTextDelta{Delta: part.Text})
		}
	}
	if cand.FinishReason != "" {
		s.resp.StopReason = mapFinishReason(cand.FinishReason)
		s.resp.RawStopReason = string(cand.FinishReason)
	}
	return nil
}

func (s *stream) fail(err error, reason glimpse.StopReason, raw string) error {
	s.state = glimpse.StreamStateError
	s.err = err
	s.resp.Text = s.text.String()
	s.resp.StopReason = reason
	s.resp.RawStopReason = raw
	s.logger.Debug("gemini stream failed", zap.Error(err))
	return err
}

func (s *stream) finalize() {
	s.state = glimpse.StreamStateComplete
	s.resp.Text = s.text.String()
	if s.resp.StopReason == "" {
		s.resp.StopReason = glimpse.StopEndTurn
	}
	s.logger.Debug("gemini stream complete",
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
		return glimpse.Response{}, fmt.Errorf("gemini: %w", glimpse.ErrStreamNotReady)
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
	s.stop()
	return nil
}

func mapFinishReason(r genai.FinishReason) glimpse.StopReason {
	switch r {
	case genai.FinishReasonStop:
		return glimpse.StopEndTurn
	case genai.FinishReasonMaxTokens:
		return glimpse.StopLength
	case genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII,
		genai.FinishReasonImageSafety:
		return glimpse.StopBlocked
	default:
		return glimpse.StopUnknown
	}
}

func convertUsage(u *genai.GenerateContentResponseUsageMetadata) glimpse.Usage {
	cached := int(u.CachedContentTokenCount)
	return glimpse.Usage{
		InputTokens:     max(0, int(u.PromptTokenCount)-cached),
		OutputTokens:    int(u.CandidatesTokenCount) + int(u.ThoughtsTokenCount),
		CacheReadTokens: cached,
	}
}
