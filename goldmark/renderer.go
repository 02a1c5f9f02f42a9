package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/glimpse"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type ansiRenderer struct {
	source []byte

	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newRenderer(theme glimpse.Theme) *ansiRenderer {
	return &ansiRenderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *ansiRenderer) render(source []byte, width int) string {
	r.source = source
	doc := md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	r.walkBlocks(doc, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *ansiRenderer) walkBlocks(node ast.Node, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderBlock(c, width, buf)
		if c.NextSibling() != nil && separated(c) {
			buf.WriteString("\n")
		}
	}
}

// separated reports whether a blank line follows the block.
func separated(n ast.Node) bool {
	_, isHTML := n.(*ast.HTMLBlock)
	return !isHTML
}

func (r *ansiRenderer) renderBlock(node ast.Node, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		r.writeWrapped(buf, r.inline(n), width)

	case *ast.Heading:
		r.writeWrapped(buf, r.accent.Render(r.inline(n)), width)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(r.source)); lang != "" {
			buf.WriteString(r.muted.Render(lang))
			buf.WriteString("\n")
		}
		r.writeCode(buf, n.Lines())

	case *ast.CodeBlock:
		r.writeCode(buf, n.Lines())

	case *ast.List:
		r.renderList(n, width, buf, 0)

	case *ast.Blockquote:
		r.renderQuote(n, width, buf)

	case *east.Table:
		r.renderTable(n, buf)

	case *ast.ThematicBreak:
		buf.WriteString(r.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(r.source))
		}

	default:
		r.walkBlocks(node, width, buf)
	}
}

func (r *ansiRenderer) writeWrapped(buf *bytes.Buffer, s string, width int) {
	buf.WriteString(lipgloss.NewStyle().Width(width).Render(s))
	buf.WriteString("\n")
}

func (r *ansiRenderer) writeCode(buf *bytes.Buffer, lines *text.Segments) {
	gutter := r.muted.Render("│") + " "
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.WriteString(gutter)
		buf.WriteString(strings.TrimRight(string(line.Value(r.source)), "\n"))
		buf.WriteString("\n")
	}
}

// renderQuote renders the quote's blocks at reduced width behind a gutter.
func (r *ansiRenderer) renderQuote(node *ast.Blockquote, width int, buf *bytes.Buffer) {
	var inner bytes.Buffer
	r.walkBlocks(node, max(width-2, 10), &inner)
	gutter := r.muted.Render("│") + " "
	for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
		buf.WriteString(gutter + r.italic.Render(line) + "\n")
	}
}

func (r *ansiRenderer) renderList(node *ast.List, width int, buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	num := node.Start

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inline(in))
			case *ast.List:
				if content.Len() > 0 {
					r.writeListItem(buf, indent+marker, content.String(), width)
					content.Reset()
				}
				r.renderList(in, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				r.renderBlock(ic, width, &content)
			}
		}
		if content.Len() > 0 {
			r.writeListItem(buf, indent+marker, content.String(), width)
		}
	}
}

// writeListItem writes a list item with continuation lines aligned under
// the first character after the marker.
func (r *ansiRenderer) writeListItem(buf *bytes.Buffer, prefix, content string, width int) {
	wrapped := lipgloss.NewStyle().Width(max(width-len(prefix), 10)).Render(content)
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

// renderTable lays out a GFM table in aligned columns. The header row is
// bold and underlined by a muted rule.
func (r *ansiRenderer) renderTable(node *east.Table, buf *bytes.Buffer) {
	var rows [][]string
	var aligns []east.Alignment
	header := -1
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*east.TableHeader); ok {
			header = len(rows)
		}
		var cells []string
		col := 0
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			tc, ok := cell.(*east.TableCell)
			if !ok {
				continue
			}
			cells = append(cells, r.inline(tc))
			if col >= len(aligns) {
				aligns = append(aligns, tc.Alignment)
			}
			col++
		}
		rows = append(rows, cells)
	}

	widths := make([]int, len(aligns))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	sep := " " + r.muted.Render("│") + " "
	for i, row := range rows {
		parts := make([]string, len(widths))
		for j := range widths {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			if i == header {
				cell = r.bold.Render(cell)
			}
			parts[j] = pad(cell, widths[j], aligns[j])
		}
		buf.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		buf.WriteString("\n")
		if i == header {
			rules := make([]string, len(widths))
			for j, w := range widths {
				rules[j] = strings.Repeat("─", w)
			}
			buf.WriteString(r.muted.Render(strings.Join(rules, "─┼─")))
			buf.WriteString("\n")
		}
	}
}

func pad(s string, width int, align east.Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case east.AlignRight:
		return strings.Repeat(" ", gap) + s
	case east.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

// inline collects styled inline text from a node's children.
func (r *ansiRenderer) inline(node ast.Node) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderInline(c, &buf)
	}
	return buf.String()
}

func (r *ansiRenderer) renderInline(node ast.Node, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(r.source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(r.inline(n)))
		} else {
			buf.WriteString(r.bold.Render(r.inline(n)))
		}

	case *east.Strikethrough:
		buf.WriteString(r.strike.Render(r.inline(n)))

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.inline(n)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inline(n)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(r.source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.inline(n)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(r.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderInline(c, buf)
		}
	}
}
