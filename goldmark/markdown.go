// Package goldmark renders model answers written in markdown: as ANSI-styled
// text for the terminal front ends and as HTML for the web page.
package goldmark

import (
	"bytes"
	"fmt"

	"github.com/fwojciec/glimpse"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md parses GitHub-flavored markdown, since answers about charts and
// screenshots often contain tables. Raw HTML in answers is escaped.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, list items and quotes are word-wrapped to width. Code blocks
// and tables are rendered without reflow.
func Render(source string, width int, theme glimpse.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

// RenderHTML converts markdown source to an HTML fragment.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
