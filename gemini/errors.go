package gemini

import (
	"errors"
	"net/http"

	"github.com/fwojciec/glimpse"
	"google.golang.org/genai"
)

// classify maps Gemini API errors onto the glimpse failure classes.
// Status 408, 429 and any 5xx are transient.
func classify(err error) error {
	code, ok := statusCode(err)
	if !ok {
		return glimpse.Classify(err)
	}
	if retryableStatus(code) {
		return glimpse.Transient(err)
	}
	return glimpse.Permanent(err)
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}
