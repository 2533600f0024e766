package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders runs of styled text on one background color. Lipgloss
// emits a reset after every segment, so spaces between segments have to be
// painted explicitly or the background shows gaps.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a helper for the given background color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render applies style on the background, including interior spaces.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	words := strings.Split(text, " ")
	styled := style.Background(b.bg)
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Join joins already rendered parts with n background spaces.
func (b BgStyle) Join(parts []string, n int) string {
	return strings.Join(parts, strings.Repeat(b.space, n))
}

// FillLine pads content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}
