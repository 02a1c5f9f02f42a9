// Package web serves the browser chat page and its JSON and websocket API.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/glimpse"
	glimpsefs "github.com/fwojciec/glimpse/fs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Asker relays a question about an image. *glimpse.Relay implements it.
type Asker interface {
	Ask(ctx context.Context, s *glimpse.Session, question string, img *glimpse.Image, opts ...glimpse.AskOption) (glimpse.Turn, error)
}

// Server is the web front end. It implements http.Handler.
type Server struct {
	router        chi.Router
	asker         Asker
	sessions      *Sessions
	store         *glimpsefs.Store
	logger        *zap.Logger
	maxImageBytes int64
	secureCookie  bool

	// done is closed by Close; active counts handlers still running.
	done      chan struct{}
	closeOnce sync.Once
	active    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStore also saves every upload as a versioned artifact.
func WithStore(store *glimpsefs.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithMaxImageBytes caps upload size. Defaults to fs.DefaultMaxImageBytes.
func WithMaxImageBytes(n int64) Option {
	return func(s *Server) { s.maxImageBytes = n }
}

// WithSecureCookie marks the session cookie Secure, for HTTPS deployments.
func WithSecureCookie(secure bool) Option {
	return func(s *Server) { s.secureCookie = secure }
}

// NewServer creates a Server that relays questions through asker and keeps
// browser sessions in sessions.
func NewServer(asker Asker, sessions *Sessions, opts ...Option) *Server {
	s := &Server{
		asker:         asker,
		sessions:      sessions,
		logger:        zap.NewNop(),
		maxImageBytes: glimpsefs.DefaultMaxImageBytes,
		done:          make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create static sub filesystem: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware(s.secureCookie))
		r.Get("/", s.handleIndex)
		r.Route("/api", func(r chi.Router) {
			r.Post("/image", s.handleImage)
			r.Post("/ask", s.handleAsk)
			r.Get("/turns", s.handleTurns)
			r.Get("/transcript", s.handleTranscript)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.active.Add(1)
	defer s.active.Done()
	s.router.ServeHTTP(w, r)
}

// Close ends open websocket streams and waits for every running handler to
// return. http.Server.Shutdown does not wait for hijacked connections, so
// call Close after the listener has stopped accepting requests.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.active.Wait()
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
