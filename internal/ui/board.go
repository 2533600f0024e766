package ui

import (
	"fmt"
	"strings"

	"github.com/five82/minimetars/internal/settings"
	"github.com/five82/minimetars/internal/station"
)

// cellKind identifies a board column.
type cellKind int

const (
	cellID cellKind = iota
	cellAltimeter
	cellWind
	cellAtis
)

type cell struct {
	kind cellKind
	text string
}

// rowCells returns the padded column values for v. Hidden columns are
// omitted entirely so the row stays compact.
func rowCells(v station.View, s settings.Settings) []cell {
	cells := []cell{{cellID, pad(v.Display, ColumnIDWidth)}}
	if v.Status == station.Invalid {
		return cells
	}
	if s.ShowAltimeter {
		cells = append(cells, cell{cellAltimeter, pad(orPlaceholder(v.Altimeter), ColumnAltimeterWidth)})
	}
	if s.ShowWind {
		cells = append(cells, cell{cellWind, pad(orPlaceholder(v.Wind), ColumnWindWidth)})
	}
	if s.ShowVatsimAtis {
		cells = append(cells, cell{cellAtis, pad(orPlaceholder(v.Atis), ColumnAtisWidth)})
	}
	return cells
}

// rowText is the unstyled row, used for the selected row and in tests.
func rowText(v station.View, s settings.Settings) string {
	cells := rowCells(v, s)
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.text
	}
	return strings.TrimRight(strings.Join(parts, strings.Repeat(" ", ColumnGap)), " ")
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// renderBoard renders the station rows plus any expanded detail panels.
func (m Model) renderBoard() string {
	styles := m.theme.Styles()
	if len(m.snapshot.Stations) == 0 {
		return styles.FaintText.Render("no stations")
	}

	lines := make([]string, 0, len(m.snapshot.Stations))
	for i, v := range m.snapshot.Stations {
		if i == m.selected {
			lines = append(lines, styles.Selected.Width(m.contentWidth()).Render(rowText(v, m.settings)))
		} else {
			lines = append(lines, m.renderRow(v, styles))
		}
		if v.DetailVisible() {
			lines = append(lines, styles.Detail.Width(m.contentWidth()).Render(v.Raw))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(v station.View, styles Styles) string {
	cells := rowCells(v, m.settings)
	parts := make([]string, len(cells))
	for i, c := range cells {
		switch c.kind {
		case cellID:
			parts[i] = styles.StatusStyle(v.Status).Render(c.text)
		case cellAltimeter:
			parts[i] = styles.InfoText.Render(c.text)
		case cellWind:
			parts[i] = styles.Text.Render(c.text)
		case cellAtis:
			parts[i] = styles.WarningText.Render(c.text)
		}
	}
	return strings.Join(parts, strings.Repeat(" ", ColumnGap))
}

func (m Model) contentWidth() int {
	if m.width > 0 {
		return m.width
	}
	return DefaultWidth
}
