package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/goldmark"
	glimpsejson "github.com/fwojciec/glimpse/json"
	"go.uber.org/zap"
)

// multipartOverhead is allowed on top of the image limit for form framing.
const multipartOverhead = 1 << 20

// TurnResponse is the JSON form of a Turn. Image bytes are never echoed.
type TurnResponse struct {
	Question   string        `json:"question"`
	Image      string        `json:"image,omitempty"`
	Attached   bool          `json:"attached,omitempty"`
	Answer     string        `json:"answer"`
	AnswerHTML string        `json:"answer_html"`
	StopReason string        `json:"stop_reason"`
	Usage      UsageResponse `json:"usage"`
	AskedAt    time.Time     `json:"asked_at"`
	AnsweredAt time.Time     `json:"answered_at"`
}

// UsageResponse is the JSON form of token usage.
type UsageResponse struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ImageResponse acknowledges an upload.
type ImageResponse struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	Replaced bool   `json:"replaced"`
	Version  int    `json:"version,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// StatusFor maps a relay error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, glimpse.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, glimpse.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, glimpse.ErrValidation), errors.Is(err, glimpse.ErrEmptyQuestion):
		return http.StatusBadRequest
	case glimpse.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	s.logger.Warn("request failed",
		zap.String("path", r.URL.Path),
		zap.String("session", SessionFromContext(r.Context()).ID),
		zap.Int("status", status),
		zap.Bool("retryable", glimpse.IsRetryable(err)),
		zap.Error(err),
	)
	JSON(w, status, ErrorResponse{Error: err.Error(), Retryable: glimpse.IsRetryable(err)})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			JSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "image too large"})
			return
		}
		s.fail(w, r, fmt.Errorf("multipart field image: %w: %w", glimpse.ErrValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxImageBytes+1))
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w: %w", glimpse.ErrValidation, err))
		return
	}
	if int64(len(data)) > s.maxImageBytes {
		JSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "image too large"})
		return
	}

	img, err := glimpse.NewImage(filepath.Base(header.Filename), data, header.Header.Get("Content-Type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := ImageResponse{
		Name:     img.Name,
		MimeType: img.MimeType,
		Size:     img.Size(),
		Replaced: sess.Attach(img),
	}
	if s.store != nil {
		art, err := s.store.Save(img)
		if err != nil {
			s.logger.Error("save artifact", zap.String("session", sess.ID), zap.Error(err))
		} else {
			resp.Version = art.Version
		}
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, fmt.Errorf("decode request: %w: %w", glimpse.ErrValidation, err))
		return
	}
	turn, err := s.asker.Ask(r.Context(), sess, req.Question, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newTurnResponse(turn))
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	turns := SessionFromContext(r.Context()).Turns()
	out := make([]TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = newTurnResponse(t)
	}
	JSON(w, http.StatusOK, out)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	data, err := glimpsejson.MarshalSession(sess)
	if err != nil {
		s.logger.Error("marshal transcript", zap.String("session", sess.ID), zap.Error(err))
		JSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to export transcript"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="glimpse-%s.json"`, sess.ID))
	_, _ = w.Write(data)
}

type pageData struct {
	Pending *glimpse.Image
	Turns   []pageTurn
}

type pageTurn struct {
	TurnResponse
	HTML template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	data := pageData{Pending: sess.PendingImage()}
	for _, t := range sess.Turns() {
		tr := newTurnResponse(t)
		// goldmark drops raw HTML from answers, so its output is trusted.
		data.Turns = append(data.Turns, pageTurn{TurnResponse: tr, HTML: template.HTML(tr.AnswerHTML)})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page", zap.Error(err))
	}
}

func newTurnResponse(t glimpse.Turn) TurnResponse {
	html, err := goldmark.RenderHTML(t.Answer)
	if err != nil {
		html = template.HTMLEscapeString(t.Answer)
	}
	tr := TurnResponse{
		Question:   t.Question,
		Attached:   t.Attached,
		Answer:     t.Answer,
		AnswerHTML: html,
		StopReason: string(t.StopReason),
		Usage: UsageResponse{
			InputTokens:  t.Usage.InputTokens,
			OutputTokens: t.Usage.OutputTokens,
		},
		AskedAt:    t.AskedAt,
		AnsweredAt: t.AnsweredAt,
	}
	if t.Image != nil {
		tr.Image = t.Image.Name
	}
	return tr
}
