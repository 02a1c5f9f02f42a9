package glimpse_test

import (
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustImage(t *testing.T, name, mimeType string) glimpse.Image {
	t.Helper()
	img, err := glimpse.NewImage(name, []byte(name+"-bytes"), mimeType)
	require.NoError(t, err)
	return img
}

func TestNewSession(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("sess-123")
	assert.Equal(t, "sess-123", s.ID)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, s.CreatedAt, s.UpdatedAt())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Turns())
	assert.Nil(t, s.LastImage())
	assert.Nil(t, s.PendingImage())
	assert.False(t, s.Busy())
}

func TestSession_Attach(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	img := mustImage(t, "cat.png", "image/png")

	replaced := s.Attach(img)
	assert.False(t, replaced)
	require.NotNil(t, s.LastImage())
	assert.Equal(t, "cat.png", s.LastImage().Name)
	assert.Same(t, s.LastImage(), s.PendingImage())
}

func TestSession_AttachTwiceReplaces(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	s.Attach(mustImage(t, "first.png", "image/png"))

	replaced := s.Attach(mustImage(t, "second.jpg", "image/jpeg"))
	assert.True(t, replaced)
	assert.Equal(t, "second.jpg", s.LastImage().Name)
	assert.Equal(t, 0, s.Len())
}
