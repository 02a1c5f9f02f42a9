package anthropic_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseResponse is a helper to build SSE responses for tests.
type sseResponse struct {
	events []sseEvent
}

type sseEvent struct {
	event string
	data  string
}

func (s sseResponse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, evt := range s.events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.event, evt.data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

const messageStart = `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`

// textStreamResponse returns a simple text streaming SSE response.
func textStreamResponse() sseResponse {
	return sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"A red"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" bicycle."}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}}
}

func streamFromSSE(t *testing.T, resp sseResponse) glimpse.Stream {
	t.Helper()
	srv := httptest.NewServer(resp.handler())
	t.Cleanup(srv.Close)
	stream, err := newClient(t, srv.URL).Stream(context.Background(), glimpse.Request{Question: "What is this?"})
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func collectEvents(t *testing.T, s glimpse.Stream) []glimpse.Event {
	t.Helper()
	var events []glimpse.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

func TestStream_TextResponse(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())

	events := collectEvents(t, s)

	assert.Equal(t, []glimpse.Event{
		glimpse.EventTextDelta{Delta: "A red"},
		glimpse.EventTextDelta{Delta: " bicycle."},
	}, events)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "A red bicycle.", resp.Text)
	assert.Equal(t, glimpse.StopEndTurn, resp.StopReason)
	assert.Equal(t, "end_turn", resp.RawStopReason)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 5, resp.Usage.OutputTokens)
	assert.Equal(t, glimpse.StreamStateComplete, s.State())

	_, err = s.Next()
	assert.Equal(t, io.EOF, err, "Next after completion keeps returning EOF")
}

func TestStream_Thinking(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"The sign is blurry."}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"abc"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"It says STOP."}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":1}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":20}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}})

	events := collectEvents(t, s)
	assert.Equal(t, []glimpse.Event{
		glimpse.EventThinkingDelta{Delta: "The sign is blurry."},
		glimpse.EventTextDelta{Delta: "It says STOP."},
	}, events)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "It says STOP.", resp.Text, "thinking stays out of the answer")
}

func TestStream_StopReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want glimpse.StopReason
	}{
		{"end_turn", glimpse.StopEndTurn},
		{"stop_sequence", glimpse.StopEndTurn},
		{"max_tokens", glimpse.StopLength},
		{"refusal", glimpse.StopBlocked},
		{"pause_turn", glimpse.StopUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			s := streamFromSSE(t, sseResponse{events: []sseEvent{
				{"message_start", messageStart},
				{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"x"}}`},
				{"message_delta", fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":%q},"usage":{"output_tokens":1}}`, tt.raw)},
				{"message_stop", `{"type":"message_stop"}`},
			}})
			collectEvents(t, s)

			resp, err := s.Response()
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StopReason)
			assert.Equal(t, tt.raw, resp.RawStopReason)
		})
	}
}

func TestStream_CacheUsage(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, sseResponse{events: []sseEvent{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","model":"m","usage":{"input_tokens":12,"output_tokens":1,"cache_creation_input_tokens":null,"cache_read_input_tokens":900}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"ok"}}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":3,"input_tokens":15,"cache_read_input_tokens":null}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}})
	collectEvents(t, s)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, glimpse.Usage{InputTokens: 15, OutputTokens: 3, CacheReadTokens: 900}, resp.Usage)
	assert.Equal(t, 918, resp.Usage.Total())
}

func TestStream_ResponseBeforeNext(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())
	_, err := s.Response()
	assert.ErrorIs(t, err, glimpse.ErrStreamNotReady)
	assert.Equal(t, glimpse.StreamStateNew, s.State())
}

func TestStream_ResponseMidStream(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())
	_, err := s.Next()
	require.NoError(t, err)

	assert.Equal(t, glimpse.StreamStateStreaming, s.State())
	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "A red", resp.Text)
}

func TestStream_CloseAborts(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())
	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, glimpse.StreamStateClosed, s.State())
	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, glimpse.StopAborted, resp.StopReason)

	_, err = s.Next()
	assert.ErrorIs(t, err, glimpse.ErrStreamClosed)
}

func TestStream_ClosePreservesTerminalState(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())
	collectEvents(t, s)
	require.NoError(t, s.Close())

	assert.Equal(t, glimpse.StreamStateComplete, s.State())
	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, glimpse.StopEndTurn, resp.StopReason)
}

func TestStream_SSEError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		retryable bool
	}{
		{"overloaded", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, true},
		{"invalid request", `{"type":"error","error":{"type":"invalid_request_error","message":"Image too large"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := streamFromSSE(t, sseResponse{events: []sseEvent{
				{"message_start", messageStart},
				{"error", tt.data},
			}})

			_, err := s.Next()
			require.Error(t, err)
			assert.Equal(t, tt.retryable, glimpse.IsRetryable(err))
			assert.Equal(t, glimpse.StreamStateError, s.State())

			again, err2 := s.Next()
			assert.Nil(t, again)
			assert.Equal(t, err, err2, "terminal error is sticky")

			resp, err := s.Response()
			require.NoError(t, err)
			assert.Equal(t, glimpse.StopError, resp.StopReason)
		})
	}
}

func TestStream_UnexpectedEOF(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"A red"}}`},
	}})

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, glimpse.EventTextDelta{Delta: "A red"}, evt)

	_, err = s.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, glimpse.IsRetryable(err))

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "A red", resp.Text, "partial text survives")
	assert.Equal(t, glimpse.StopError, resp.StopReason)
}

func TestStream_MalformedEvent(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_delta", `{"type":`},
	}})

	_, err := s.Next()
	require.Error(t, err)
	assert.ErrorContains(t, err, "content_block_delta")
	assert.ErrorIs(t, err, glimpse.ErrPermanentRemote)
}

func TestStream_ContextCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: message_start\ndata: %s\n\n", messageStart)
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"A\"}}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	s, err := newClient(t, srv.URL).Stream(ctx, glimpse.Request{Question: "Hi"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next()
	require.NoError(t, err)

	cancel()
	_, err = s.Next()
	require.ErrorIs(t, err, context.Canceled)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, glimpse.StopAborted, resp.StopReason)
}
