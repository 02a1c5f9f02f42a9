package glimpse

import (
	"fmt"
	"strings"
)

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if r.Image != nil {
		if _, err := NormalizeMimeType(r.Image.MimeType); err != nil {
			return err
		}
		if len(r.Image.Data) == 0 {
			return fmt.Errorf("image is empty: %w", ErrValidation)
		}
	}
	for i, t := range r.History {
		if t.Question == "" {
			return fmt.Errorf("history turn %d has no question: %w", i, ErrValidation)
		}
	}
	return nil
}
