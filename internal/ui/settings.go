package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/obcdbg/internal/config"
)

// Settings form fields
const (
	fieldTabLen = iota
	fieldFontSize
	fieldMaxLines
	fieldLogFile
	fieldCount
)

var settingsLabels = [fieldCount]string{
	fieldTabLen:   "Tab length:   ",
	fieldFontSize: "Font size:    ",
	fieldMaxLines: "Max lines:    ",
	fieldLogFile:  "Log file:     ",
}

type settingsForm struct {
	open   bool
	inputs [fieldCount]textinput.Model
	focus  int
	// logLocked is set when the form opened during a session.
	logLocked bool
}

func newSettingsForm() settingsForm {
	var f settingsForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 10
		ti.Width = 12
		f.inputs[i] = ti
	}
	f.inputs[fieldTabLen].Placeholder = "e.g. 8"
	f.inputs[fieldFontSize].Placeholder = "e.g. 12"
	f.inputs[fieldMaxLines].Placeholder = "e.g. 1000"
	f.inputs[fieldLogFile].Placeholder = "path"
	f.inputs[fieldLogFile].CharLimit = 256
	f.inputs[fieldLogFile].Width = 36
	return f
}

// openSettings pre-fills the form from the current configuration.
func (m *Model) openSettings() {
	f := &m.settings
	f.inputs[fieldTabLen].SetValue(strconv.Itoa(m.cfg.TabLen))
	f.inputs[fieldFontSize].SetValue(strconv.Itoa(m.cfg.ConsoleFontSize))
	f.inputs[fieldMaxLines].SetValue(strconv.Itoa(m.cfg.MaxConsoleLines))
	f.inputs[fieldLogFile].SetValue(m.cfg.Channel(m.channel).LogFile)
	f.logLocked = m.locked()
	f.focus = 0
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.inputs[0].Focus()
	f.open = true
}

func (f *settingsForm) move(delta int) {
	f.inputs[f.focus].Blur()
	n := int(fieldCount)
	if f.logLocked {
		n = fieldLogFile
	}
	f.focus = ((f.focus+delta)%n + n) % n
	f.inputs[f.focus].Focus()
}

// handleSettingsKey handles keyboard input for the settings modal.
func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.settings.open = false
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.settings.open = false
		m.applySettings()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.settings.move(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.settings.move(-1)
		return m, nil
	}

	var cmd tea.Cmd
	f := &m.settings
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

// applySettings saves the form. Each console field is validated on its own so
// one bad value does not discard the others.
func (m *Model) applySettings() {
	f := &m.settings
	cfg, rejected, err := m.configs.ApplyConsole(config.ConsoleInput{
		TabLen:          f.inputs[fieldTabLen].Value(),
		ConsoleFontSize: f.inputs[fieldFontSize].Value(),
		MaxConsoleLines: f.inputs[fieldMaxLines].Value(),
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("saving console settings")
		m.showError("Could not save settings", err.Error())
		return
	}
	m.cfg = cfg
	m.renderer.SetTabWidth(cfg.TabLen)
	m.renderer.SetScrollback(cfg.MaxConsoleLines)

	logFile := strings.TrimSpace(f.inputs[fieldLogFile].Value())
	if !f.logLocked && logFile != "" && logFile != cfg.Channel(m.channel).LogFile {
		if err := m.configs.SetLogFile(m.channel, logFile); err != nil {
			m.showError("Could not save settings", err.Error())
			return
		}
		m.cfg = m.configs.Config()
		if m.sink != nil {
			if err := m.sink.SetPath(m.cfg.LogPath(m.channel)); err != nil {
				m.logger.Warn().Err(err).Msg("switching log file")
			}
		}
	}

	m.syncConsole(false)
	if len(rejected) > 0 {
		names := make([]string, len(rejected))
		for i, fe := range rejected {
			names[i] = fe.Field
		}
		m.flash = "Ignored invalid " + strings.Join(names, ", ")
		return
	}
	m.flash = "Settings saved"
}

// renderSettings renders the settings modal.
func (m Model) renderSettings() string {
	styles := m.theme.Styles()
	f := m.settings

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Settings"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	for i := range f.inputs {
		label := settingsLabels[i]
		switch {
		case i == fieldLogFile && f.logLocked:
			b.WriteString(styles.FaintText.Render(label))
			b.WriteString(styles.FaintText.Render(f.inputs[i].Value() + " (locked while open)"))
		case i == f.focus:
			b.WriteString(styles.AccentText.Render(label))
			b.WriteString(f.inputs[i].View())
		default:
			b.WriteString(styles.MutedText.Render(label))
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n\n")
	}

	b.WriteString(styles.MutedText.Render("Log file applies to the " + m.channel + " channel."))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Enter: Save  •  Esc: Cancel  •  Tab: Next"))

	return m.renderModal(b.String(), m.theme.Accent, 60)
}
