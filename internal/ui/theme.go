package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/obcdbg/internal/config"
)

// ChannelTheme is the pseudo theme that follows the selected channel.
const ChannelTheme = "Channel"

// consoleBackground sits behind the level colors, which assume black.
const consoleBackground = "#000000"

// Theme defines colors for the chrome around the console.
type Theme struct {
	Name string

	Background string // Outermost background
	Surface    string // Header and status bars
	FocusBg    string // Modal and input backgrounds

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Background: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Background)),

		Surface: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style
}

// WithBackground returns a copy of Styles with all text styles having the specified background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)

	return Styles{
		Background: s.Background.Background(bg),
		Surface:    s.Surface.Background(bg),

		Text:        s.Text.Background(bg),
		MutedText:   s.MutedText.Background(bg),
		FaintText:   s.FaintText.Background(bg),
		AccentText:  s.AccentText.Background(bg),
		SuccessText: s.SuccessText.Background(bg),
		WarningText: s.WarningText.Background(bg),
		DangerText:  s.DangerText.Background(bg),
		InfoText:    s.InfoText.Background(bg),

		Header: s.Header.Background(bg),
		Logo:   s.Logo.Background(bg),
	}
}

// Theme definitions

var themes = map[string]Theme{
	"Dark":      darkTheme(),
	"DarkBlue":  darkBlueTheme(),
	"DarkAmber": darkAmberTheme(),
	"Dracula":   draculaTheme(),
	"Slate":     slateTheme(),
}

var themeOrder = []string{ChannelTheme, "Dark", "DarkBlue", "DarkAmber", "Dracula", "Slate"}

// channelThemes maps each channel to the theme used when following channels.
var channelThemes = map[string]string{
	config.ChannelMain:     "Dark",
	config.ChannelTransmit: "DarkBlue",
	config.ChannelReceive:  "DarkAmber",
}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return darkTheme()
}

// ResolveTheme maps a preference to a concrete theme for the channel.
func ResolveTheme(name, channel string) Theme {
	if name == ChannelTheme || name == "" {
		return GetTheme(channelThemes[channel])
	}
	return GetTheme(name)
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func darkTheme() Theme {
	return Theme{
		Name: "Dark",

		Background: "#2b2b2b",
		Surface:    "#404040",
		FocusBg:    "#4d4d4d",

		Border:      "#5a5a5a",
		BorderFocus: "#a3a3a3",

		Text:    "#ffffff",
		Muted:   "#bdbdbd",
		Faint:   "#7a7a7a",
		Accent:  "#c0c0c0",
		Success: "#50fa7b",
		Warning: "#ffa500",
		Danger:  "#ff5555",
		Info:    "#8be9fd",
	}
}

func darkBlueTheme() Theme {
	return Theme{
		Name: "DarkBlue",

		Background: "#11202d",
		Surface:    "#1a2835",
		FocusBg:    "#1d3b58",

		Border:      "#2c4a66",
		BorderFocus: "#5fa8e8",

		Text:    "#d1ecff",
		Muted:   "#8fb3d1",
		Faint:   "#52708a",
		Accent:  "#5fa8e8",
		Success: "#4ade80",
		Warning: "#fbbf24",
		Danger:  "#f87171",
		Info:    "#67e8f9",
	}
}

func darkAmberTheme() Theme {
	return Theme{
		Name: "DarkAmber",

		Background: "#201d1a",
		Surface:    "#2c2825",
		FocusBg:    "#3d3530",

		Border:      "#705e52",
		BorderFocus: "#fdcb52",

		Text:    "#fdcb52",
		Muted:   "#c9a36a",
		Faint:   "#7d6a57",
		Accent:  "#fdcb52",
		Success: "#a3e635",
		Warning: "#fb923c",
		Danger:  "#ef4444",
		Info:    "#fde68a",
	}
}

func draculaTheme() Theme {
	// Official Dracula palette: https://draculatheme.com/spec
	return Theme{
		Name: "Dracula",

		Background: "#191A21", // BGDarker
		Surface:    "#282A36", // Background
		FocusBg:    "#343746", // BGLight

		Border:      "#44475A", // Selection
		BorderFocus: "#BD93F9", // Purple

		Text:    "#F8F8F2", // Foreground
		Muted:   "#6272A4", // Comment
		Faint:   "#44475A", // Selection
		Accent:  "#BD93F9", // Purple
		Success: "#50FA7B", // Green
		Warning: "#FFB86C", // Orange
		Danger:  "#FF5555", // Red
		Info:    "#8BE9FD", // Cyan
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		FocusBg:    "#283548",

		Border:      "#334155", // slate-700
		BorderFocus: "#38bdf8", // sky-400

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500
		Info:    "#06b6d4", // cyan-500
	}
}
