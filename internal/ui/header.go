package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/obcdbg/internal/telemetry"
)

// renderHeader renders the session status line.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	// Port, baud and channel are frozen while a session is open
	open := m.snapshot.Open
	settable := styles.Text
	if open {
		settable = styles.FaintText
	}

	parts := []string{bg.Render("obcdbg", styles.Logo)}

	parts = append(parts, bg.Pair("Ch:", m.channel, styles.MutedText, settable))

	switch {
	case open && m.snapshot.Failing():
		parts = append(parts, bg.Render("● FAILING", styles.WarningText.Bold(true)))
	case open:
		parts = append(parts, bg.Render("● OPEN", styles.SuccessText))
	default:
		parts = append(parts, bg.Render("○ CLOSED", styles.MutedText))
	}

	port := m.selectedPort()
	if port == "" {
		port = "none"
	}
	parts = append(parts,
		bg.Pair("Port:", truncateMiddle(port, 32), styles.MutedText, settable),
		bg.Pair("Baud:", strconv.Itoa(m.baud), styles.MutedText, settable),
	)

	level := m.threshold.Load()
	levelStyle := styles.InfoText
	if level == telemetry.None {
		levelStyle = styles.WarningText
	}
	parts = append(parts, bg.Pair("Level:", level.String(), styles.MutedText, levelStyle))

	scroll, scrollStyle := "on", styles.Text
	if !m.renderer.Autoscroll() {
		scroll, scrollStyle = "off", styles.WarningText
	}
	parts = append(parts, bg.Pair("Scroll:", scroll, styles.MutedText, scrollStyle))

	snap := m.snapshot
	errStyle := styles.MutedText
	if snap.ReadErrors > 0 {
		errStyle = styles.DangerText
	}
	if compact {
		parts = append(parts,
			bg.Pair("In:", fmt.Sprintf("%d", snap.Lines()), styles.MutedText, styles.Text),
			bg.Pair("E:", fmt.Sprintf("%d", snap.ReadErrors), styles.MutedText, errStyle),
		)
	} else {
		parts = append(parts,
			bg.Pair("Shown:", fmt.Sprintf("%d", snap.Admitted), styles.MutedText, styles.Text),
			bg.Pair("Filtered:", fmt.Sprintf("%d", snap.Filtered), styles.MutedText, styles.Text),
			bg.Pair("Bad:", fmt.Sprintf("%d", snap.Malformed), styles.MutedText, styles.Text),
			bg.Pair("Errors:", fmt.Sprintf("%d", snap.ReadErrors), styles.MutedText, errStyle),
		)
	}

	if err := snap.LastError; err != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(err.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct {
		key, desc string
		locked    bool
	}
	open := m.snapshot.Open

	commands := []cmd{{key: "o", desc: "Open"}}
	if open {
		commands = []cmd{{key: "c", desc: "Close"}}
	}
	commands = append(commands,
		cmd{key: "p", desc: "Port", locked: open},
		cmd{key: "b", desc: "Baud", locked: open},
		cmd{key: "Tab", desc: "Channel", locked: open},
		cmd{key: "r", desc: "Rescan"},
		cmd{key: "+/-", desc: "Level"},
		cmd{key: "a", desc: "Scroll"},
		cmd{key: "x", desc: "Clear"},
		cmd{key: "y", desc: "Copy"},
		cmd{key: "/", desc: "Search"},
		cmd{key: "s", desc: "Settings"},
		cmd{key: "?", desc: "More"},
	)

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		keyStyle, descStyle := styles.AccentText, styles.MutedText
		if c.locked {
			keyStyle, descStyle = styles.FaintText, styles.FaintText
		}
		segments = append(segments, bg.Render(c.key, keyStyle)+colon+bg.Render(c.desc, descStyle))
	}

	if q := m.console.searchQuery; q != "" {
		segments = append(segments, bg.Render("/"+truncate(q, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// truncateMiddle keeps both ends of long device paths.
func truncateMiddle(s string, max int) string {
	if len(s) <= max || max <= 5 {
		return truncate(s, max)
	}
	head := (max - 3) / 2
	tail := max - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}
