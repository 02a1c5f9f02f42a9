package glimpse

// Theme maps each kind of on-screen text to an ANSI color index (0-15).
// The terminal palette supplies the actual RGB values. A negative index
// renders without color.
type Theme struct {
	UserMsg    int // questions
	Thinking   int
	Attachment int // "(about chart.png)" and upload notices
	Error      int
	Muted      int // status line, hints
	Accent     int // markdown headings and links
}

// DefaultTheme returns the color mapping used by the terminal front ends.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:    4,
		Thinking:   8,
		Attachment: 6,
		Error:      1,
		Muted:      8,
		Accent:     5,
	}
}

// Monochrome returns a Theme with every color disabled. Bold and faint
// attributes still apply.
func (Theme) Monochrome() Theme {
	return Theme{UserMsg: -1, Thinking: -1, Attachment: -1, Error: -1, Muted: -1, Accent: -1}
}

// ThemeFromEnv returns DefaultTheme, or its monochrome form when NO_COLOR
// is set to a non-empty value.
func ThemeFromEnv(getenv func(string) string) Theme {
	t := DefaultTheme()
	if getenv("NO_COLOR") != "" {
		return t.Monochrome()
	}
	return t
}
