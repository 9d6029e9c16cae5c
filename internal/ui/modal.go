package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderModal centres a bordered box over the screen.
func (m Model) renderModal(content, borderColor string, width int) string {
	width = min(width, max(m.width-4, 20))
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(1, 2).
		Width(width)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// renderError renders the blocking error dialog. Any key dismisses it.
func (m Model) renderError() string {
	styles := m.theme.Styles()

	title := m.errTitle
	if title == "" {
		title = "Error"
	}

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(m.errMsg))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Press any key to continue"))

	return m.renderModal(b.String(), m.theme.Danger, 56)
}
