package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/obcdbg/internal/config"
	"github.com/five82/obcdbg/internal/console"
	"github.com/five82/obcdbg/internal/prefs"
	"github.com/five82/obcdbg/internal/state"
	"github.com/five82/obcdbg/internal/telemetry"
)

const defaultTick = 2 * time.Millisecond

// Options configures the UI.
type Options struct {
	Context   context.Context
	Reader    *telemetry.Reader
	Queue     *telemetry.Queue
	Threshold *telemetry.Threshold
	Status    *state.Store
	Renderer  *console.Renderer
	Sink      *console.LogFile
	Configs   *config.Store
	// ConfigUpdates delivers external edits of the config file. Optional.
	ConfigUpdates <-chan config.Config
	Prefs         prefs.Prefs
	PrefsPath     string
	Channel       string
	Port          string // preselected port, kept even when not enumerated
	Baud          int
	Tick          time.Duration
	ListPorts     func() ([]string, error)
	CopyText      func(string) error
	Logger        zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx       context.Context
	reader    *telemetry.Reader
	queue     *telemetry.Queue
	threshold *telemetry.Threshold
	status    *state.Store
	renderer  *console.Renderer
	sink      *console.LogFile
	configs   *config.Store
	updates   <-chan config.Config
	listPorts func() ([]string, error)
	copyText  func(string) error
	prefsPath string
	logger    zerolog.Logger
	tick      time.Duration
	keys      keyMap

	// UI state
	themeName string
	theme     Theme
	width     int
	height    int
	ready     bool

	// Session selection
	cfg       config.Config
	channel   string
	ports     []string
	pinned    string // port given on the command line
	preferred string // port remembered for the channel
	portIdx   int
	baud      int
	snapshot  state.Snapshot

	console  consoleState
	settings settingsForm

	showHelp bool
	errTitle string
	errMsg   string
	flash    string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	listPorts := opts.ListPorts
	if listPorts == nil {
		listPorts = telemetry.ListPorts
	}
	copyText := opts.CopyText
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	channel := opts.Channel
	if !config.IsChannel(channel) {
		channel = config.ChannelMain
	}

	var cfg config.Config
	if opts.Configs != nil {
		cfg = opts.Configs.Config()
	} else {
		cfg = config.Default()
	}

	themeName := opts.Prefs.Theme
	if themeName == "" {
		themeName = ChannelTheme
	}

	m := Model{
		ctx:       ctx,
		reader:    opts.Reader,
		queue:     opts.Queue,
		threshold: opts.Threshold,
		status:    opts.Status,
		renderer:  opts.Renderer,
		sink:      opts.Sink,
		configs:   opts.Configs,
		updates:   opts.ConfigUpdates,
		listPorts: listPorts,
		copyText:  copyText,
		prefsPath: prefsPath,
		logger:    opts.Logger,
		tick:      tick,
		keys:      DefaultKeyMap(),
		themeName: themeName,
		theme:     ResolveTheme(themeName, channel),
		cfg:       cfg,
		channel:   channel,
		pinned:    strings.TrimSpace(opts.Port),
		console:   newConsoleState(),
		settings:  newSettingsForm(),
	}

	ch := cfg.Channel(channel)
	m.preferred = ch.Port
	m.baud = ch.Baudrate
	if config.SupportedBaud(opts.Baud) {
		m.baud = opts.Baud
	}
	m.setPorts(nil)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.tick),
		portsCmd(m.listPorts),
	}
	if cmd := waitConfigCmd(m.updates); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeConsole()
		m.syncConsole(true)
		return m, nil

	case tickMsg:
		return m.handleTick()

	case portsMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("port enumeration failed")
			m.flash = "Port refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.setPorts(msg.ports)
		return m, nil

	case openResultMsg:
		m.handleOpenResult(msg)
		return m, nil

	case closeResultMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("closing serial port")
		}
		m.snapshot = m.status.Snapshot()
		m.flash = "Port closed"
		return m, nil

	case configMsg:
		m.applyConfig(config.Config(msg))
		return m, waitConfigCmd(m.updates)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.errMsg != "" {
		return m.renderError()
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.settings.open {
		return m.renderSettings()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key dismisses the error modal
	if m.errMsg != "" {
		m.errMsg = ""
		m.errTitle = ""
		if !m.snapshot.Open {
			m.status.ClearError()
			m.snapshot = m.status.Snapshot()
		}
		return m, nil
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.settings.open {
		return m.handleSettingsKey(msg)
	}

	if m.console.searchActive {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.themeName = NextTheme(m.themeName)
		m.theme = ResolveTheme(m.themeName, m.channel)
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m, m.openSession()

	case key.Matches(msg, m.keys.Close):
		return m, closeCmd(m.reader)

	case key.Matches(msg, m.keys.RefreshPorts):
		return m, portsCmd(m.listPorts)

	case key.Matches(msg, m.keys.CyclePort):
		if !m.locked() && len(m.ports) > 0 {
			m.portIdx = (m.portIdx + 1) % len(m.ports)
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleBaud):
		if !m.locked() {
			m.baud = nextBaud(m.baud)
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleChannel):
		if !m.locked() {
			m.switchChannel(nextChannel(m.channel))
		}
		return m, nil

	case key.Matches(msg, m.keys.VerbosityUp):
		level := m.threshold.Step(1)
		m.flash = "Verbosity " + level.String()
		return m, nil

	case key.Matches(msg, m.keys.VerbosityDown):
		level := m.threshold.Step(-1)
		m.flash = "Verbosity " + level.String()
		return m, nil

	case key.Matches(msg, m.keys.Autoscroll):
		on := !m.renderer.Autoscroll()
		m.renderer.SetAutoscroll(on)
		if on {
			m.console.viewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.renderer.Clear()
		m.clearSearch()
		m.syncConsole(true)
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyConsole()
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.openSettings()
		return m, nil
	}

	return m.handleConsoleKey(msg)
}

// handleTick drains at most one record into the console.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if rec, ok := m.queue.Pop(); ok {
		if ins, ok := m.renderer.Render(rec); ok {
			m.console.apply(ins, m.renderer.Version())
		}
	}

	wasOpen := m.snapshot.Open
	m.snapshot = m.status.Snapshot()
	if wasOpen && !m.snapshot.Open && m.snapshot.LastError != nil {
		m.showError("Session ended", m.snapshot.LastError.Error())
	}

	m.syncConsole(false)
	return m, tickCmd(m.tick)
}

// locked reports whether session settings are frozen by an open port.
func (m Model) locked() bool {
	return m.reader.IsOpen()
}

func (m Model) openSession() tea.Cmd {
	if m.locked() {
		return nil
	}
	port := m.selectedPort()
	if port == "" {
		return func() tea.Msg {
			return openResultMsg{err: fmt.Errorf("%w: no port selected", telemetry.ErrPortUnavailable)}
		}
	}
	return openCmd(m.reader, port, m.baud)
}

func (m *Model) handleOpenResult(msg openResultMsg) {
	if msg.err != nil {
		m.status.OpenFailed(msg.err)
		m.snapshot = m.status.Snapshot()
		m.logger.Warn().Err(msg.err).Str("port", msg.port).Msg("open failed")
		m.showError("Failed to open serial port", msg.err.Error())
		return
	}
	m.snapshot = m.status.Snapshot()
	if m.configs != nil {
		if err := m.configs.UpdateChannel(m.channel, msg.port, msg.baud); err != nil {
			m.logger.Warn().Err(err).Msg("remembering port")
		} else {
			m.cfg = m.configs.Config()
			m.preferred = msg.port
		}
	}
	m.flash = fmt.Sprintf("Opened %s @ %d", msg.port, msg.baud)
}

func (m *Model) showError(title, body string) {
	m.errTitle = title
	m.errMsg = body
}

// selectedPort returns the highlighted device name.
func (m Model) selectedPort() string {
	if m.portIdx >= 0 && m.portIdx < len(m.ports) {
		return m.ports[m.portIdx]
	}
	return ""
}

// setPorts replaces the device list. While a session is open the selection
// follows the open port; otherwise the channel's remembered port wins.
func (m *Model) setPorts(listed []string) {
	current := m.selectedPort()
	ports := make([]string, 0, len(listed)+1)
	if m.pinned != "" && !slices.Contains(listed, m.pinned) {
		ports = append(ports, m.pinned)
	}
	ports = append(ports, listed...)
	if len(ports) == 0 && m.preferred != "" {
		ports = append(ports, m.preferred)
	}
	m.ports = ports

	want := m.preferred
	if m.pinned != "" {
		want = m.pinned
	}
	if m.reader != nil && m.reader.IsOpen() {
		if info, ok := m.reader.Session(); ok {
			want = info.Port
		}
	} else if current != "" && m.pinned == "" && m.preferred == "" {
		want = current
	}

	m.portIdx = 0
	if i := slices.Index(ports, want); i >= 0 {
		m.portIdx = i
	}
}

// switchChannel moves to another channel: its log file, port, baud rate and
// theme. The console starts empty.
func (m *Model) switchChannel(name string) {
	m.channel = name
	ch := m.cfg.Channel(name)
	m.baud = ch.Baudrate
	m.preferred = ch.Port
	m.pinned = ""
	m.setPorts(m.listedPorts())
	if m.sink != nil {
		if err := m.sink.SetPath(m.cfg.LogPath(name)); err != nil {
			m.logger.Warn().Err(err).Msg("switching log file")
		}
	}
	m.theme = ResolveTheme(m.themeName, name)
	m.renderer.Clear()
	m.clearSearch()
	m.syncConsole(true)
	m.savePrefs()
}

func (m Model) listedPorts() []string {
	return slices.Clone(m.ports)
}

// applyConfig takes an externally edited configuration.
func (m *Model) applyConfig(cfg config.Config) {
	m.cfg = cfg
	m.renderer.SetTabWidth(cfg.TabLen)
	m.renderer.SetScrollback(cfg.MaxConsoleLines)
	if !m.locked() {
		ch := cfg.Channel(m.channel)
		m.baud = ch.Baudrate
		m.preferred = ch.Port
		m.setPorts(m.listedPorts())
		if m.sink != nil {
			if err := m.sink.SetPath(cfg.LogPath(m.channel)); err != nil {
				m.logger.Warn().Err(err).Msg("switching log file")
			}
		}
	}
	m.syncConsole(false)
	m.flash = "Configuration reloaded"
}

func (m *Model) copyConsole() {
	text := m.renderer.Text()
	if err := m.copyText(text); err != nil {
		m.logger.Warn().Err(err).Msg("clipboard copy failed")
		m.flash = "Copy failed: " + err.Error()
		return
	}
	m.flash = fmt.Sprintf("Copied %d lines", m.renderer.Len())
}

func (m Model) savePrefs() {
	p := prefs.Prefs{
		Theme:      m.themeName,
		Channel:    m.channel,
		Verbosity:  m.threshold.Load().String(),
		Autoscroll: m.renderer.Autoscroll(),
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn().Err(err).Msg("saving preferences")
	}
}

func nextBaud(current int) int {
	rates := telemetry.BaudRates
	i := slices.Index(rates, current)
	return rates[(i+1)%len(rates)]
}

func nextChannel(current string) string {
	names := config.Channels()
	i := slices.Index(names, current)
	return names[(i+1)%len(names)]
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderConsole())
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())

	return b.String()
}

// Messages

type tickMsg time.Time

type portsMsg struct {
	ports []string
	err   error
}

type openResultMsg struct {
	port string
	baud int
	err  error
}

type closeResultMsg struct {
	err error
}

type configMsg config.Config

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func portsCmd(list func() ([]string, error)) tea.Cmd {
	return func() tea.Msg {
		ports, err := list()
		return portsMsg{ports: ports, err: err}
	}
}

func openCmd(reader *telemetry.Reader, port string, baud int) tea.Cmd {
	return func() tea.Msg {
		return openResultMsg{port: port, baud: baud, err: reader.Open(port, baud)}
	}
}

func closeCmd(reader *telemetry.Reader) tea.Cmd {
	return func() tea.Msg {
		return closeResultMsg{err: reader.Close()}
	}
}

func waitConfigCmd(updates <-chan config.Config) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-updates
		if !ok {
			return nil
		}
		return configMsg(cfg)
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
