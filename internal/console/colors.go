package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/obcdbg/internal/telemetry"
)

// Palette is the foreground/background pair for one level.
type Palette struct {
	Foreground string
	Background string
}

// levelPalettes is fixed at build time; FATAL is the only inverted entry.
var levelPalettes = [...]Palette{
	telemetry.Debug: {Foreground: "#FFFFFF", Background: "#000000"},
	telemetry.Info:  {Foreground: "#00FF00", Background: "#000000"},
	telemetry.Warn:  {Foreground: "#FFA500", Background: "#000000"},
	telemetry.Error: {Foreground: "#FF0000", Background: "#000000"},
	telemetry.Fatal: {Foreground: "#FF0000", Background: "#FFFFFF"},
}

// Colors returns the palette for a level. Unknown levels render like DEBUG.
func Colors(level telemetry.Level) Palette {
	if !level.IsRecordLevel() {
		return levelPalettes[telemetry.Debug]
	}
	return levelPalettes[level]
}

// Style returns the lipgloss style for a level.
func Style(level telemetry.Level) lipgloss.Style {
	p := Colors(level)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Foreground)).
		Background(lipgloss.Color(p.Background))
}
