package glimpse

import "strings"

// DefaultQuestion is asked when an image is submitted without any text.
const DefaultQuestion = "Please analyze this image"

// Compose builds the Request for question against the session's history.
// An explicit img takes precedence; otherwise the session's last image is
// carried forward by reference. With no image at all the request is
// text-only. An empty question is replaced by DefaultQuestion when an image
// is present and fails with ErrEmptyQuestion otherwise.
func Compose(s *Session, question string, img *Image) (Request, error) {
	s.mu.Lock()
	snap := snapshot{turns: append([]Turn(nil), s.turns...), lastImage: s.lastImage, fresh: s.fresh}
	s.mu.Unlock()
	req, _, err := compose(snap, question, img)
	return req, err
}

// compose also reports whether the request's image is newly introduced.
func compose(snap snapshot, question string, img *Image) (Request, bool, error) {
	attached := img != nil
	if img == nil {
		img = snap.lastImage
		attached = snap.fresh
	}
	question = strings.TrimSpace(question)
	if question == "" {
		if img == nil {
			return Request{}, false, ErrEmptyQuestion
		}
		question = DefaultQuestion
	}
	return Request{
		History:  snap.turns,
		Question: question,
		Image:    img,
	}, attached && img != nil, nil
}
