package anthropic

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fwojciec/glimpse"
)

// statusOverloaded is returned by the Messages API when it is over capacity.
const statusOverloaded = 529

// APIError is an error reported by the Messages API, either as a non-200
// HTTP response or as an SSE error event. StatusCode is zero for the latter.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Type == "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	case e.StatusCode == 0:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	default:
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
}

// Retryable reports whether resubmitting the same request may succeed.
func (e *APIError) Retryable() bool {
	switch e.Type {
	case "overloaded_error", "rate_limit_error", "api_error", "timeout_error":
		return true
	}
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == statusOverloaded ||
		e.StatusCode >= http.StatusInternalServerError
}

// classify maps err onto the glimpse failure classes.
func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable() {
			return glimpse.Transient(err)
		}
		return glimpse.Permanent(err)
	}
	return glimpse.Classify(err)
}
