package colors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style is one resolved display style: the raw SGR attribute string from the
// rule table (e.g. "01;34"). The zero value means "no styling".
type Style struct {
	sgr string
}

// NewStyle creates a style from a raw SGR attribute string.
func NewStyle(sgr string) Style {
	return Style{sgr: sgr}
}

// SGR returns the raw attribute string.
func (s Style) SGR() string {
	return s.sgr
}

// IsZero reports whether the style carries no attributes.
func (s Style) IsZero() bool {
	return s.sgr == "" || s.sgr == "0" || s.sgr == "00"
}

// Apply wraps text in the style's escape sequence. When enabled is false or
// the style is empty, the text is returned untouched, which keeps rendered
// output byte-stable for pipes and tests.
func (s Style) Apply(text string, enabled bool) string {
	if !enabled || s.IsZero() {
		return text
	}
	return "\x1b[" + s.sgr + "m" + text + "\x1b[0m"
}

// Lipgloss converts the SGR attributes into a lipgloss.Style for use by the
// interactive browser. Attributes lipgloss cannot express (blink, hidden)
// are dropped.
func (s Style) Lipgloss() lipgloss.Style {
	ls := lipgloss.NewStyle()
	if s.IsZero() {
		return ls
	}
	codes := strings.Split(s.sgr, ";")
	for i := 0; i < len(codes); i++ {
		n, err := strconv.Atoi(codes[i])
		if err != nil {
			continue
		}
		switch {
		case n == 1:
			ls = ls.Bold(true)
		case n == 2:
			ls = ls.Faint(true)
		case n == 3:
			ls = ls.Italic(true)
		case n == 4:
			ls = ls.Underline(true)
		case n == 7:
			ls = ls.Reverse(true)
		case n == 9:
			ls = ls.Strikethrough(true)
		case n >= 30 && n <= 37:
			ls = ls.Foreground(lipgloss.Color(strconv.Itoa(n - 30)))
		case n >= 90 && n <= 97:
			ls = ls.Foreground(lipgloss.Color(strconv.Itoa(n - 90 + 8)))
		case n >= 40 && n <= 47:
			ls = ls.Background(lipgloss.Color(strconv.Itoa(n - 40)))
		case n >= 100 && n <= 107:
			ls = ls.Background(lipgloss.Color(strconv.Itoa(n - 100 + 8)))
		case n == 38 || n == 48:
			color, consumed := extendedColor(codes[i+1:])
			if consumed == 0 {
				return ls
			}
			if n == 38 {
				ls = ls.Foreground(color)
			} else {
				ls = ls.Background(color)
			}
			i += consumed
		}
	}
	return ls
}

// extendedColor decodes the tail of a 38;... or 48;... sequence: "5;n" for
// 256-color palettes and "2;r;g;b" for truecolor. It returns the color and
// how many code positions were consumed, 0 when the sequence is malformed.
func extendedColor(codes []string) (lipgloss.Color, int) {
	if len(codes) >= 2 && codes[0] == "5" {
		if _, err := strconv.Atoi(codes[1]); err == nil {
			return lipgloss.Color(codes[1]), 2
		}
		return "", 0
	}
	if len(codes) >= 4 && codes[0] == "2" {
		var rgb [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(codes[1+i])
			if err != nil || n < 0 || n > 255 {
				return "", 0
			}
			rgb[i] = n
		}
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])), 4
	}
	return "", 0
}
