package gemini_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/gemini"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestClassify_APIError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code      int
		retryable bool
	}{
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			t.Parallel()
			err := gemini.Classify(fmt.Errorf("generate: %w", genai.APIError{Code: tt.code}))
			assert.Equal(t, tt.retryable, glimpse.IsRetryable(err))
			assert.Equal(t, !tt.retryable, errors.Is(err, glimpse.ErrPermanentRemote))
		})
	}
}

func TestClassify_APIErrorPointer(t *testing.T) {
	t.Parallel()
	err := gemini.Classify(&genai.APIError{Code: 502})
	assert.True(t, glimpse.IsRetryable(err))
}

func TestClassify_FallsBackToDomain(t *testing.T) {
	t.Parallel()
	assert.True(t, glimpse.IsRetryable(gemini.Classify(context.DeadlineExceeded)))
	assert.ErrorIs(t, gemini.Classify(errors.New("boom")), glimpse.ErrPermanentRemote)
}
