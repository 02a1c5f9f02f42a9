package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/fwojciec/glimpse"
	"go.uber.org/zap"
)

// Frame is one websocket message from the server.
type Frame struct {
	// Type is "delta", "thinking", "turn" or "error".
	Type      string        `json:"type"`
	Text      string        `json:"text,omitempty"`
	Turn      *TurnResponse `json:"turn,omitempty"`
	Error     string        `json:"error,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
}

// handleWS streams answers over a websocket. Each inbound AskRequest yields
// delta frames followed by exactly one turn or error frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		var req AskRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				s.logger.Debug("websocket read", zap.String("session", sess.ID), zap.Error(err))
			}
			return
		}
		if err := s.streamAnswer(ctx, conn, sess, req.Question); err != nil {
			s.logger.Debug("websocket write", zap.String("session", sess.ID), zap.Error(err))
			return
		}
	}
}

func (s *Server) streamAnswer(ctx context.Context, conn *websocket.Conn, sess *glimpse.Session, question string) error {
	var writeErr error
	turn, err := s.asker.Ask(ctx, sess, question, nil, glimpse.WithEventHandler(func(e glimpse.Event) {
		if writeErr != nil {
			return
		}
		switch e := e.(type) {
		case glimpse.EventTextDelta:
			writeErr = wsjson.Write(ctx, conn, Frame{Type: "delta", Text: e.Delta})
		case glimpse.EventThinkingDelta:
			writeErr = wsjson.Write(ctx, conn, Frame{Type: "thinking", Text: e.Delta})
		}
	}))
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		s.logger.Warn("ask failed",
			zap.String("session", sess.ID),
			zap.Bool("retryable", glimpse.IsRetryable(err)),
			zap.Error(err),
		)
		return wsjson.Write(ctx, conn, Frame{Type: "error", Error: err.Error(), Retryable: glimpse.IsRetryable(err)})
	}
	tr := newTurnResponse(turn)
	return wsjson.Write(ctx, conn, Frame{Type: "turn", Turn: &tr})
}
