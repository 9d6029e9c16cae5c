package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/obcdbg/internal/console"
)

// consoleState holds the viewport and the styled copy of the renderer's lines.
type consoleState struct {
	viewport viewport.Model
	plain    []string
	styled   []string
	synced   uint64 // renderer version the cache reflects
	dirty    bool

	// Search state
	searchActive bool
	searchInput  textinput.Model
	searchQuery  string
	searchRegex  *regexp.Regexp
	matches      []int
	matchIdx     int
}

func newConsoleState() consoleState {
	ti := textinput.New()
	ti.Placeholder = "Search console..."
	ti.CharLimit = 100

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(consoleBackground))

	return consoleState{
		viewport:    vp,
		searchInput: ti,
		dirty:       true,
	}
}

func styleLine(l console.Line) string {
	return console.Style(l.Level).Render(l.Text)
}

// apply mirrors one render instruction into the cache without rebuilding it.
func (c *consoleState) apply(ins console.Instruction, version uint64) {
	text := styleLine(ins.Line)
	if ins.Overwrite && len(c.styled) > 0 {
		last := len(c.styled) - 1
		c.plain[last] = ins.Line.Text
		c.styled[last] = text
		c.matches = dropMatch(c.matches, last)
	} else {
		c.plain = append(c.plain, ins.Line.Text)
		c.styled = append(c.styled, text)
	}
	if c.searchRegex != nil && c.searchRegex.MatchString(ins.Line.Text) {
		c.matches = append(c.matches, len(c.styled)-1)
	}

	if n := ins.Trimmed; n > 0 {
		n = min(n, len(c.styled))
		c.plain = append([]string(nil), c.plain[n:]...)
		c.styled = append([]string(nil), c.styled[n:]...)
		c.matches = shiftMatches(c.matches, n)
	}

	// A cache that skipped a version is stale; sync rebuilds it.
	if version == c.synced+1 {
		c.synced = version
	}
	c.dirty = true
}

func dropMatch(matches []int, idx int) []int {
	if n := len(matches); n > 0 && matches[n-1] == idx {
		return matches[:n-1]
	}
	return matches
}

func shiftMatches(matches []int, n int) []int {
	out := matches[:0]
	for _, i := range matches {
		if i >= n {
			out = append(out, i-n)
		}
	}
	return out
}

// rebuild restyles every line from the renderer.
func (m *Model) rebuildConsole() {
	lines := m.renderer.Lines()
	c := &m.console
	c.plain = make([]string, len(lines))
	c.styled = make([]string, len(lines))
	for i, l := range lines {
		c.plain[i] = l.Text
		c.styled[i] = styleLine(l)
	}
	c.synced = m.renderer.Version()
	m.findSearchMatches()
	c.dirty = true
}

// syncConsole pushes the cache into the viewport when it changed.
func (m *Model) syncConsole(force bool) {
	if m.console.synced != m.renderer.Version() {
		m.rebuildConsole()
	}
	if !force && !m.console.dirty {
		return
	}
	m.console.viewport.SetContent(m.consoleContent())
	m.console.dirty = false
	if m.renderer.Autoscroll() {
		m.console.viewport.GotoBottom()
	}
}

// consoleContent joins the cache, highlighting the current search match.
func (m *Model) consoleContent() string {
	c := &m.console
	current := -1
	if len(c.matches) > 0 && c.matchIdx < len(c.matches) {
		current = c.matches[c.matchIdx]
	}
	if current < 0 {
		return strings.Join(c.styled, "\n")
	}

	highlight := lipgloss.NewStyle().
		Foreground(lipgloss.Color(consoleBackground)).
		Background(lipgloss.Color(m.theme.Accent))

	var b strings.Builder
	for i, line := range c.styled {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == current {
			b.WriteString(highlight.Render(c.plain[i]))
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

// resizeConsole fits the viewport between the bars.
func (m *Model) resizeConsole() {
	// header, command bar and status bar take a row each; the box border two
	m.console.viewport.Width = max(m.width-2, 1)
	m.console.viewport.Height = max(m.height-5, 1)
}

// renderConsole renders the bordered console box.
func (m Model) renderConsole() string {
	borderColor := m.theme.Border
	if m.snapshot.Open {
		borderColor = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(consoleBackground)).
		Width(max(m.width-2, 1)).
		Height(max(m.height-5, 1))
	return box.Render(m.console.viewport.View())
}

// renderStatusBar renders the line below the console.
func (m Model) renderStatusBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var left string
	switch {
	case m.console.searchActive:
		left = bg.Render("/", styles.AccentText) + m.console.searchInput.View()
	case m.flash != "":
		left = bg.Render(m.flash, styles.InfoText)
	case m.console.searchQuery != "":
		left = bg.Render(m.searchStatus(), styles.MutedText)
	default:
		left = bg.Render("Log: "+m.logPath(), styles.FaintText)
	}

	pos := fmt.Sprintf("%d lines  %3.0f%%", m.renderer.Len(), m.console.viewport.ScrollPercent()*100)
	right := bg.Render(pos, styles.MutedText)

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	line := bg.Space() + left + bg.Spaces(gap) + right + bg.Space()
	return bg.FillLine(line, m.width)
}

func (m Model) searchStatus() string {
	c := m.console
	if len(c.matches) == 0 {
		return fmt.Sprintf("/%s  no matches", c.searchQuery)
	}
	return fmt.Sprintf("/%s  %d/%d", c.searchQuery, c.matchIdx+1, len(c.matches))
}

func (m Model) logPath() string {
	if m.sink == nil {
		return "-"
	}
	return m.sink.Path()
}

// handleConsoleKey handles navigation and search keys for the console.
func (m Model) handleConsoleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.console.viewport

	switch {
	case key.Matches(msg, m.keys.Search):
		m.console.searchActive = true
		m.console.searchInput.SetValue("")
		m.console.searchInput.Focus()
		m.flash = ""
		return m, nil

	case key.Matches(msg, m.keys.NextMatch):
		m.stepSearchMatch(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.stepSearchMatch(-1)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.console.searchRegex != nil {
			m.clearSearch()
			m.syncConsole(true)
		}
		m.flash = ""
		return m, nil

	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
		m.renderer.SetAutoscroll(false)
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
		m.renderer.SetAutoscroll(true)
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		vp.ScrollUp(1)
		m.renderer.SetAutoscroll(false)
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		vp.HalfPageUp()
		m.renderer.SetAutoscroll(false)
	case key.Matches(msg, m.keys.PageDown):
		vp.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		vp.PageUp()
		m.renderer.SetAutoscroll(false)
	}

	return m, nil
}

// handleSearchInput handles keyboard input while typing a search.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.console.searchInput.Value()
		m.console.searchActive = false
		m.console.searchInput.Blur()
		if query == "" {
			return m, nil
		}

		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			m.flash = "Invalid search: " + err.Error()
			return m, nil
		}

		m.console.searchRegex = re
		m.console.searchQuery = query
		m.findSearchMatches()
		if len(m.console.matches) > 0 {
			m.console.matchIdx = 0
			m.scrollToSearchMatch()
		}
		m.syncConsole(true)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.console.searchActive = false
		m.console.searchInput.Blur()
		m.console.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.console.searchInput, cmd = m.console.searchInput.Update(msg)
	return m, cmd
}

// clearSearch clears the search state.
func (m *Model) clearSearch() {
	m.console.searchRegex = nil
	m.console.searchQuery = ""
	m.console.matches = nil
	m.console.matchIdx = 0
	m.console.dirty = true
}

// findSearchMatches finds all cached lines matching the current search regex.
func (m *Model) findSearchMatches() {
	c := &m.console
	c.matches = nil
	if c.searchRegex == nil {
		return
	}
	for i, line := range c.plain {
		if c.searchRegex.MatchString(line) {
			c.matches = append(c.matches, i)
		}
	}
	if c.matchIdx >= len(c.matches) {
		c.matchIdx = 0
	}
	c.dirty = true
}

func (m *Model) stepSearchMatch(delta int) {
	n := len(m.console.matches)
	if n == 0 {
		return
	}
	m.console.matchIdx = ((m.console.matchIdx+delta)%n + n) % n
	m.scrollToSearchMatch()
	m.syncConsole(true)
}

// scrollToSearchMatch centres the current match and stops following.
func (m *Model) scrollToSearchMatch() {
	c := &m.console
	if len(c.matches) == 0 || c.matchIdx >= len(c.matches) {
		return
	}
	m.renderer.SetAutoscroll(false)
	target := c.matches[c.matchIdx]
	c.viewport.SetYOffset(max(target-c.viewport.Height/2, 0))
}
