package glimpse

import "time"

// Turn is one question paired with the model's answer. Turns are immutable
// once appended to a Session.
type Turn struct {
	Question string
	// Image is the image sent with this turn, nil for text-only turns. It is
	// shared with earlier turns when carried forward.
	Image *Image
	// Attached reports whether Image was introduced by this turn rather than
	// carried forward from an earlier one.
	Attached      bool
	Answer        string
	StopReason    StopReason
	RawStopReason string
	Usage         Usage
	AskedAt       time.Time
	AnsweredAt    time.Time
}

// HasImage reports whether the turn was asked about an image.
func (t Turn) HasImage() bool { return t.Image != nil }
