package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/glimpse"
	"github.com/rivo/uniseg"
)

var _ MessageBlock = (*AttachmentBlock)(nil)

// AttachmentBlock renders an attached image as a one-line label:
// the file name, MIME type and size.
type AttachmentBlock struct {
	name     string
	mimeType string
	size     int
	replaced bool
	styles   Styles
}

// NewAttachmentBlock creates an AttachmentBlock for img. replaced marks an
// attachment that superseded one nobody asked about.
func NewAttachmentBlock(img glimpse.Image, replaced bool, styles Styles) *AttachmentBlock {
	return &AttachmentBlock{
		name:     img.Name,
		mimeType: img.MimeType,
		size:     img.Size(),
		replaced: replaced,
		styles:   styles,
	}
}

func (b *AttachmentBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AttachmentBlock) View(width int) string {
	const icon = "▣ "
	suffix := fmt.Sprintf(" (%s, %s)", b.mimeType, formatSize(b.size))
	if b.replaced {
		suffix += " replaces previous image"
	}
	avail := width - uniseg.StringWidth(icon) - uniseg.StringWidth(suffix)
	name := truncateGraphemes(b.name, avail)
	return b.styles.Attachment.Render(icon+name) + b.styles.Muted.Render(suffix)
}

// truncateGraphemes shortens s to at most width terminal cells, never
// splitting a grapheme cluster, and marks the cut with an ellipsis.
func truncateGraphemes(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	b.WriteString("…")
	return b.String()
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
