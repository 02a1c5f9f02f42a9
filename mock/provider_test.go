package mock_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_PassesRequestThrough(t *testing.T) {
	t.Parallel()
	img := glimpse.Image{Name: "a.png", MimeType: glimpse.MimeTypePNG, Data: []byte{1}}
	var got glimpse.Request
	wantErr := errors.New("quota exceeded")
	p := mock.Provider{
		StreamFn: func(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
			got = req
			return nil, wantErr
		},
	}

	_, err := p.Stream(context.Background(), glimpse.Request{Question: "What is it?", Image: &img})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, "What is it?", got.Question)
	assert.Same(t, &img, got.Image)
}

func TestProvider_NilStreamFnPanics(t *testing.T) {
	t.Parallel()
	var p mock.Provider
	assert.Panics(t, func() {
		_, _ = p.Stream(context.Background(), glimpse.Request{})
	})
}

func TestAnswering(t *testing.T) {
	t.Parallel()
	p := mock.Answering("a cat on a mat")

	// Each call gets a fresh stream.
	for range 2 {
		s, err := p.Stream(context.Background(), glimpse.Request{Question: "q"})
		require.NoError(t, err)

		evt, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, glimpse.EventTextDelta{Delta: "a cat on a mat"}, evt)
		_, err = s.Next()
		assert.Equal(t, io.EOF, err)

		resp, err := s.Response()
		require.NoError(t, err)
		assert.Equal(t, "a cat on a mat", resp.Text)
	}
}
