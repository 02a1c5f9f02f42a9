package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieName holds the browser's session ID.
const CookieName = "glimpse_session"

type contextKey int

const sessionKey contextKey = iota

// Sessions is an in-memory registry of browser sessions. Sessions idle for
// longer than the TTL are evicted by Sweep; a session with a request in
// flight is never evicted. Any request resolved through Middleware counts
// as activity.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*glimpse.Session
	seen     map[string]time.Time // last request per session ID
	ttl      time.Duration
	now      func() time.Time
}

// NewSessions creates a registry. A non-positive ttl disables eviction.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*glimpse.Session),
		seen:     make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session with id, if any.
func (s *Sessions) Get(id string) (*glimpse.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Touch returns the session with id and marks it active now, so a Sweep
// that follows cannot evict it before the request finishes.
func (s *Sessions) Touch(id string) (*glimpse.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		s.seen[id] = s.now()
	}
	return sess, ok
}

// Create registers a new session under a fresh UUIDv7.
func (s *Sessions) Create() *glimpse.Session {
	sess := glimpse.NewSession(uuid.Must(uuid.NewV7()).String())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.seen[sess.ID] = s.now()
	return sess
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Busy() || sess.UpdatedAt().After(cutoff) || s.seen[id].After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		delete(s.seen, id)
		n++
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Info("evicted idle sessions", zap.Int("count", n), zap.Int("live", s.Len()))
			}
		}
	}
}

// Middleware resolves the request's session from its cookie, creating a new
// session when the cookie is missing or names an evicted one.
func (s *Sessions) Middleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *glimpse.Session
			if c, err := r.Cookie(CookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sess, _ = s.Touch(c.Value)
				}
			}
			if sess == nil {
				sess = s.Create()
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   secure,
			})
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session attached by Middleware.
func SessionFromContext(ctx context.Context) *glimpse.Session {
	sess, _ := ctx.Value(sessionKey).(*glimpse.Session)
	return sess
}
