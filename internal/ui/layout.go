package ui

// Column widths in cells. The identifier column fits a four letter ICAO
// code; wind fits a gusting report such as 28015G25KT.
const (
	ColumnIDWidth        = 5
	ColumnAltimeterWidth = 5
	ColumnWindWidth      = 10
	ColumnAtisWidth      = 3
	ColumnGap            = 2
)

// Board limits.
const (
	// DefaultWidth is used until the terminal reports its size.
	DefaultWidth = 40

	// FooterRows and HeaderRows are the fixed lines around the board.
	HeaderRows = 1
	FooterRows = 1

	// StatusMaxWidth caps the header status message.
	StatusMaxWidth = 32
)

// Placeholder is shown for a value that has not arrived yet.
const Placeholder = "--"
