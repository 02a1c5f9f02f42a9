package web

import "time"

// SetNow replaces the clock Sweep uses.
func SetNow(s *Sessions, now func() time.Time) {
	s.now = now
}
