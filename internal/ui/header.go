package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/minimetars/internal/settings"
)

// columnFlag is one optional column with its on/off state.
type columnFlag struct {
	label string
	on    bool
}

func columnFlags(s settings.Settings) []columnFlag {
	return []columnFlag{
		{"ALT", s.ShowAltimeter},
		{"WIND", s.ShowWind},
		{"ATIS", s.ShowVatsimAtis},
	}
}

func stationCount(n int) string {
	if n == 1 {
		return "1 station"
	}
	return fmt.Sprintf("%d stations", n)
}

// renderHeader renders the title line: name, count, column flags and the
// last status message.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("minimetars", styles.Logo),
		bg.Render(stationCount(len(m.snapshot.Stations)), styles.MutedText),
	}
	for _, f := range columnFlags(m.settings) {
		style := styles.FaintText
		if f.on {
			style = styles.AccentText
		}
		parts = append(parts, bg.Render(f.label, style))
	}
	if m.status != "" {
		style := styles.SuccessText
		if m.statusErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.status, StatusMaxWidth), style))
	}
	return bg.FillLine(bg.Join(parts, 2), m.contentWidth())
}

// renderFooter renders the add input with the short key hint when it fits.
func (m Model) renderFooter() string {
	line := m.input.View()
	hint := m.help.ShortHelpView(m.keys.ShortHelp())
	if lipgloss.Width(line)+2+lipgloss.Width(hint) <= m.contentWidth() {
		line += "  " + hint
	}
	return line
}

// renderHelp renders the full key reference.
func (m Model) renderHelp() string {
	return m.help.FullHelpView(m.keys.FullHelp())
}
