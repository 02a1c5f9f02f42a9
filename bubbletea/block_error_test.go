package bubbletea_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/glimpse"
	bt "github.com/fwojciec/glimpse/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestErrorBlock_View(t *testing.T) {
	t.Parallel()

	_, unsupported := glimpse.NewImage("scan.gif", []byte("GIF89a"), "image/gif")

	tests := []struct {
		name  string
		err   error
		label string
		want  []string
	}{
		{
			name:  "transient suggests retry",
			err:   glimpse.Transient(errors.New("rate limited")),
			label: "Temporary error:",
			want:  []string{"rate limited", "Press Enter on an empty line to retry"},
		},
		{
			name:  "permanent discourages retry",
			err:   glimpse.Permanent(errors.New("response stopped: SAFETY")),
			label: "Rejected:",
			want:  []string{"SAFETY", "will not help"},
		},
		{
			name:  "unsupported format names the accepted types",
			err:   unsupported,
			label: "Error:",
			want:  []string{"image/gif", "Only PNG and JPEG"},
		},
		{
			name:  "busy session",
			err:   glimpse.ErrSessionBusy,
			label: "Error:",
			want:  []string{"Wait for the current answer"},
		},
		{
			name:  "plain error has no hint",
			err:   errors.New("something broke"),
			label: "Error:",
			want:  []string{"something broke"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view := bt.NewErrorBlock(tt.err, bt.NewStyles(glimpse.DefaultTheme())).View(120)
			assert.Contains(t, view, tt.label)
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}
