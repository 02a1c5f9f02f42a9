package glimpse_test

import (
	"context"
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_TextOnly(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")

	req, err := glimpse.Compose(s, "What is an image reader?", nil)
	require.NoError(t, err)
	assert.Equal(t, "What is an image reader?", req.Question)
	assert.Nil(t, req.Image)
	assert.Empty(t, req.History)
}

func TestCompose_NewImage(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	img := mustImage(t, "cat.png", "image/png")

	req, err := glimpse.Compose(s, "What is in this image?", &img)
	require.NoError(t, err)
	assert.Same(t, &img, req.Image)
}

func TestCompose_CarriesAttachedImage(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	s.Attach(mustImage(t, "cat.png", "image/png"))

	req, err := glimpse.Compose(s, "What color is it?", nil)
	require.NoError(t, err)
	require.NotNil(t, req.Image)
	assert.Same(t, s.LastImage(), req.Image)
}

func TestCompose_ExplicitImageWins(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	s.Attach(mustImage(t, "old.png", "image/png"))
	img := mustImage(t, "new.jpg", "image/jpeg")

	req, err := glimpse.Compose(s, "And this one?", &img)
	require.NoError(t, err)
	assert.Equal(t, "new.jpg", req.Image.Name)
}

func TestCompose_DefaultQuestion(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	img := mustImage(t, "cat.png", "image/png")

	req, err := glimpse.Compose(s, "   ", &img)
	require.NoError(t, err)
	assert.Equal(t, glimpse.DefaultQuestion, req.Question)
}

func TestCompose_EmptyQuestionWithoutImage(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")

	_, err := glimpse.Compose(s, "", nil)
	assert.ErrorIs(t, err, glimpse.ErrEmptyQuestion)
}

func TestCompose_HistoryOldestFirst(t *testing.T) {
	t.Parallel()
	s := glimpse.NewSession("s")
	answers := []string{"first answer", "second answer"}
	var calls int
	p := &mock.Provider{
		StreamFn: func(ctx context.Context, req glimpse.Request) (glimpse.Stream, error) {
			a := answers[calls]
			calls++
			return mock.TextStream(a), nil
		},
	}
	relay := glimpse.NewRelay(p)
	_, err := relay.Ask(context.Background(), s, "one", nil)
	require.NoError(t, err)
	_, err = relay.Ask(context.Background(), s, "two", nil)
	require.NoError(t, err)

	req, err := glimpse.Compose(s, "three", nil)
	require.NoError(t, err)
	require.Len(t, req.History, 2)
	assert.Equal(t, "one", req.History[0].Question)
	assert.Equal(t, "first answer", req.History[0].Answer)
	assert.Equal(t, "two", req.History[1].Question)
	assert.Equal(t, "three", req.Question)
}
