package goldmark_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI output so styled elements produce escape codes.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender_Contains(t *testing.T) {
	t.Parallel()
	theme := glimpse.DefaultTheme()

	tests := []struct {
		name  string
		src   string
		width int
		want  []string
	}{
		{"plain paragraph", "A cat sits on a red sofa.", 80, []string{"A cat sits on a red sofa."}},
		{"emphasis", "The sign reads **STOP** in *white* letters", 80, []string{"STOP", "white"}},
		{"inline code", "The label says `v1.2`", 80, []string{"v1.2"}},
		{"strikethrough", "~~blurry~~ sharp", 80, []string{"blurry", "sharp"}},
		{"fenced code keeps content", "```json\n{\"total\": 42, \"currency\": \"EUR\"}\n```", 20, []string{"json", `{"total": 42, "currency": "EUR"}`}},
		{"indented code", "Receipt:\n\n    TOTAL 42.00\n    VAT 8.00", 80, []string{"TOTAL 42.00", "VAT 8.00"}},
		{"bullet list", "- a dog\n- a ball\n- grass", 80, []string{"- a dog", "- a ball", "- grass"}},
		{"ordered list keeps start", "3. third\n4. fourth", 80, []string{"3. third", "4. fourth"}},
		{"nested list", "- outer\n  - inner", 80, []string{"- outer", "  - inner"}},
		{"link", "[source](https://example.com/chart)", 80, []string{"source", "(https://example.com/chart)"}},
		{"bare url", "see https://example.com", 80, []string{"https://example.com"}},
		{"image alt", "![a chart](https://example.com/c.png)", 80, []string{"a chart", "example.com/c.png"}},
		{"thematic break", "above\n\n---\n\nbelow", 80, []string{"above", "─", "below"}},
		{"width zero defaults", "hello", 0, []string{"hello"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := stripANSI(goldmark.Render(tt.src, tt.width, theme))
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", goldmark.Render("", 80, glimpse.DefaultTheme()))
}

func TestRender_HeadingStyled(t *testing.T) {
	t.Parallel()
	theme := glimpse.DefaultTheme()
	heading := goldmark.Render("## Objects", 80, theme)
	paragraph := goldmark.Render("Objects", 80, theme)
	assert.Contains(t, stripANSI(heading), "Objects")
	assert.NotEqual(t, heading, paragraph)
}

func TestRender_ParagraphWraps(t *testing.T) {
	t.Parallel()
	long := "The photo shows a busy street market with fruit stalls, a bicycle, and a blue awning."
	got := goldmark.Render(long, 30, glimpse.DefaultTheme())
	assert.Greater(t, len(strings.Split(got, "\n")), 1)
}

func TestRender_ParagraphsSeparatedByBlankLine(t *testing.T) {
	t.Parallel()
	got := stripANSI(goldmark.Render("first\n\nsecond", 80, glimpse.DefaultTheme()))
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "", strings.TrimSpace(lines[1]))
}

func TestRender_ListContinuationIndented(t *testing.T) {
	t.Parallel()
	src := "- a long description of the top left corner of the image that wraps onto more lines"
	lines := strings.Split(stripANSI(goldmark.Render(src, 30, glimpse.DefaultTheme())), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "- "))
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) != "" {
			assert.True(t, strings.HasPrefix(line, "  "), "continuation line should be indented: %q", line)
		}
	}
}

func TestRender_Table(t *testing.T) {
	t.Parallel()
	src := "| Month | Sales |\n|---|--:|\n| Jan | 10 |\n| Feb | 200 |"
	got := stripANSI(goldmark.Render(src, 80, glimpse.DefaultTheme()))
	lines := strings.Split(got, "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "Month │ Sales", lines[0])
	assert.Equal(t, "─────"+"─┼─"+"─────", lines[1])
	assert.Equal(t, "Jan   │    10", lines[2])
	assert.Equal(t, "Feb   │   200", lines[3])
}

func TestRender_Blockquote(t *testing.T) {
	t.Parallel()
	got := stripANSI(goldmark.Render("> Handwritten: meet at noon", 80, glimpse.DefaultTheme()))
	assert.True(t, strings.HasPrefix(got, "│ Handwritten: meet at noon"), got)
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	t.Run("converts markdown", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("**Cat** on a mat\n\n- tabby\n- sleeping")
		require.NoError(t, err)
		assert.Contains(t, got, "<strong>Cat</strong>")
		assert.Contains(t, got, "<li>tabby</li>")
	})

	t.Run("renders tables", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("| a | b |\n|---|---|\n| 1 | 2 |")
		require.NoError(t, err)
		assert.Contains(t, got, "<table>")
		assert.Contains(t, got, "<td>1</td>")
	})

	t.Run("omits raw html", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("hello <script>alert(1)</script>")
		require.NoError(t, err)
		assert.NotContains(t, got, "<script>")
		assert.Contains(t, got, "hello")
	})
}
