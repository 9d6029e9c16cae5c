package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/obcdbg/internal/config"
	"github.com/five82/obcdbg/internal/console"
	"github.com/five82/obcdbg/internal/prefs"
	"github.com/five82/obcdbg/internal/state"
	"github.com/five82/obcdbg/internal/telemetry"
	"github.com/five82/obcdbg/internal/ui"
)

// DefaultTick is the render interval; one record is drained per tick.
const DefaultTick = 2 * time.Millisecond

// sessionPoll is how often headless mode checks whether the session ended.
const sessionPoll = 50 * time.Millisecond

// Options configure the obcdbg application.
type Options struct {
	ConfigPath string // empty uses ~/.config/obcdbg/config.toml
	PrefsPath  string // empty uses ~/.config/obcdbg/prefs.toml
	Channel    string // empty uses the last channel from prefs
	Port       string // overrides the channel's remembered port
	Baud       int    // zero uses the channel's baud rate
	Level      string // empty uses the verbosity from prefs
	LogFile    string // replaces and persists the channel's log file

	DiagnosticsPath string // "-" logs to stderr
	Debug           bool
	Tick            time.Duration

	Out    io.Writer // headless output; defaults to stdout
	Opener telemetry.Opener
	Ports  func() ([]string, error)
}

// pipeline is everything Run and RunHeadless share.
type pipeline struct {
	logger    zerolog.Logger
	closeLog  func() error
	configs   *config.Store
	prefs     prefs.Prefs
	prefsPath string
	channel   string
	queue     *telemetry.Queue
	threshold *telemetry.Threshold
	status    *state.Store
	reader    *telemetry.Reader
	sink      *console.LogFile
	renderer  *console.Renderer
}

func build(opts Options) (*pipeline, error) {
	logger, closeLog, err := OpenDiagnostics(opts.DiagnosticsPath, opts.Debug)
	if err != nil {
		return nil, err
	}
	p := &pipeline{logger: logger, closeLog: closeLog}

	if err := p.init(opts); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *pipeline) init(opts Options) error {
	configs, err := config.NewStore(opts.ConfigPath, p.logger.With().Str("component", "config").Logger())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	p.configs = configs

	p.prefsPath = opts.PrefsPath
	if p.prefsPath == "" {
		p.prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(p.prefsPath)
	if err != nil {
		p.logger.Warn().Err(err).Msg("loading preferences")
	}
	p.prefs = userPrefs

	p.channel = strings.TrimSpace(opts.Channel)
	switch {
	case p.channel == "":
		p.channel = userPrefs.Channel
		if !config.IsChannel(p.channel) {
			p.channel = config.ChannelMain
		}
	case !config.IsChannel(p.channel):
		return fmt.Errorf("%w: %q", config.ErrUnknownChannel, p.channel)
	}

	level := userPrefs.Level()
	if opts.Level != "" {
		parsed, ok := telemetry.ParseLevel(opts.Level)
		if !ok {
			return fmt.Errorf("unknown level %q", opts.Level)
		}
		level = parsed
	}

	if opts.Baud != 0 && !config.SupportedBaud(opts.Baud) {
		return fmt.Errorf("unsupported baud rate %d", opts.Baud)
	}

	if opts.LogFile != "" {
		if err := configs.SetLogFile(p.channel, opts.LogFile); err != nil {
			return fmt.Errorf("set log file: %w", err)
		}
	}

	cfg := configs.Config()
	p.queue = &telemetry.Queue{}
	p.threshold = telemetry.NewThreshold(level)
	p.status = &state.Store{}
	p.sink = console.NewLogFile(cfg.LogPath(p.channel))
	p.renderer = console.NewRenderer(console.Options{
		TabWidth:   cfg.TabLen,
		Scrollback: cfg.MaxConsoleLines,
		Sink:       p.sink,
		Logger:     p.logger.With().Str("component", "console").Logger(),
	})
	p.renderer.SetAutoscroll(userPrefs.Autoscroll)

	reader, err := telemetry.NewReader(telemetry.ReaderOptions{
		Open:      opts.Opener,
		Queue:     p.queue,
		Threshold: p.threshold,
		Status:    p.status,
		Logger:    p.logger.With().Str("component", "reader").Logger(),
	})
	if err != nil {
		return fmt.Errorf("init reader: %w", err)
	}
	p.reader = reader

	p.logger.Info().
		Str("channel", p.channel).
		Str("level", level.String()).
		Str("config", configs.Path()).
		Str("log_file", p.sink.Path()).
		Msg("obcdbg starting")
	return nil
}

// Close stops the session and flushes everything the pipeline opened.
func (p *pipeline) Close() error {
	var errs []error
	if p.reader != nil {
		errs = append(errs, p.reader.Close())
	}
	if p.sink != nil {
		errs = append(errs, p.sink.Close())
	}
	if p.closeLog != nil {
		errs = append(errs, p.closeLog())
	}
	return errors.Join(errs...)
}

// Run boots the obcdbg TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	p, err := build(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	updates, werr := p.configs.Watch(ctx)
	if werr != nil {
		p.logger.Warn().Err(werr).Msg("config watch unavailable")
	}

	err = ui.Run(ui.Options{
		Context:       ctx,
		Reader:        p.reader,
		Queue:         p.queue,
		Threshold:     p.threshold,
		Status:        p.status,
		Renderer:      p.renderer,
		Sink:          p.sink,
		Configs:       p.configs,
		ConfigUpdates: updates,
		Prefs:         p.prefs,
		PrefsPath:     p.prefsPath,
		Channel:       p.channel,
		Port:          opts.Port,
		Baud:          opts.Baud,
		Tick:          opts.Tick,
		ListPorts:     opts.Ports,
		Logger:        p.logger.With().Str("component", "ui").Logger(),
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// RunHeadless opens the channel's port immediately and prints records to
// Options.Out until the context is cancelled or the session ends. A session
// that ends on a read error returns that error.
func RunHeadless(ctx context.Context, opts Options) (err error) {
	p, err := build(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	ch := p.configs.Config().Channel(p.channel)
	port := strings.TrimSpace(opts.Port)
	if port == "" {
		port = ch.Port
	}
	if port == "" {
		return fmt.Errorf("%w: no port configured for %s", telemetry.ErrPortUnavailable, p.channel)
	}
	baud := ch.Baudrate
	if opts.Baud != 0 {
		baud = opts.Baud
	}

	if err := p.reader.Open(port, baud); err != nil {
		return err
	}
	if err := p.configs.UpdateChannel(p.channel, port, baud); err != nil {
		p.logger.Warn().Err(err).Msg("remembering port")
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	drainCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := StartDrainer(drainCtx, p.queue, p.renderer, out, opts.Tick)

	ticker := time.NewTicker(sessionPoll)
	defer ticker.Stop()

	return p.await(ctx, done, stop, ticker.C)
}

// await blocks until ctx is cancelled, the drainer stops on a write failure,
// or the session has ended and its records are flushed.
func (p *pipeline) await(ctx context.Context, done <-chan struct{}, stop context.CancelFunc, poll <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			stop()
			<-done
			return nil
		case <-done:
			// Cancellation stops the drainer too.
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("write output: %w", io.ErrClosedPipe)
		case <-poll:
			if p.reader.IsOpen() || p.queue.Len() > 0 {
				continue
			}
			stop()
			<-done
			if snap := p.status.Snapshot(); snap.LastError != nil {
				return fmt.Errorf("session ended: %w", snap.LastError)
			}
			return nil
		}
	}
}
