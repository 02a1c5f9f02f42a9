package ollama

import (
	"errors"
	"net/http"

	"github.com/fwojciec/glimpse"
	"github.com/ollama/ollama/api"
)

// classify maps Ollama server errors onto the glimpse failure classes using
// the same status rules as the Gemini adapter.
func classify(err error) error {
	code, ok := statusCode(err)
	if !ok {
		return glimpse.Classify(err)
	}
	if code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError {
		return glimpse.Transient(err)
	}
	return glimpse.Permanent(err)
}

func statusCode(err error) (int, bool) {
	var se api.StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	var sePtr *api.StatusError
	if errors.As(err, &sePtr) && sePtr != nil {
		return sePtr.StatusCode, true
	}
	return 0, false
}
