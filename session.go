package glimpse

import (
	"sync"
	"time"
)

// Session is one user's conversation: an append-only list of Turns plus the
// most recently supplied image. A Session lives in memory only.
//
// Session is safe for concurrent use, but serves one Ask at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	turns     []Turn
	updatedAt time.Time
	busy      bool

	// lastImage is carried forward into requests that supply no new image.
	// fresh is set while lastImage has been attached but not yet asked about.
	lastImage *Image
	fresh     bool
}

// NewSession creates an empty Session.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, updatedAt: now}
}

// Attach ingests img into the session so the next question is asked about
// it. When an earlier attachment has not been asked about yet, img replaces
// it and replaced is true.
func (s *Session) Attach(img Image) (replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced = s.fresh
	s.lastImage = &img
	s.fresh = true
	s.updatedAt = time.Now()
	return replaced
}

// LastImage returns the most recently supplied image, or nil.
func (s *Session) LastImage() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastImage
}

// PendingImage returns the attached image that no question has used yet,
// or nil.
func (s *Session) PendingImage() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return nil
	}
	return s.lastImage
}

// Turns returns a copy of the session's turns, oldest first.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// UpdatedAt returns the time of the last attachment or answered turn.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// snapshot is the session state a request is composed from.
type snapshot struct {
	turns     []Turn
	lastImage *Image
	fresh     bool
}

func (s *Session) acquire() (snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return snapshot{}, ErrSessionBusy
	}
	s.busy = true
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return snapshot{turns: turns, lastImage: s.lastImage, fresh: s.fresh}, nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// commit appends t. The carried image moves to t.Image unless another image
// was attached while the request was in flight.
func (s *Session) commit(t Turn, prev snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	s.updatedAt = t.AnsweredAt
	if s.lastImage == prev.lastImage && s.fresh == prev.fresh {
		if t.Image != nil {
			s.lastImage = t.Image
		}
		s.fresh = false
	}
}
