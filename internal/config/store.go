package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultWatchDebounce = 250 * time.Millisecond

// ConsoleInput carries the raw settings-form values. Empty strings leave the
// corresponding field unchanged.
type ConsoleInput struct {
	TabLen          string
	ConsoleFontSize string
	MaxConsoleLines string
}

// FieldError describes one console setting that was rejected.
type FieldError struct {
	Field string
	Value string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %q is not a positive integer", e.Field, e.Value)
}

// Store owns the configuration document and writes every change back to disk.
type Store struct {
	mu       sync.Mutex
	path     string
	cfg      Config
	logger   zerolog.Logger
	debounce time.Duration
}

// NewStore loads (or creates) the configuration at path.
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(resolved)
	if err != nil {
		return nil, err
	}
	return &Store{path: resolved, cfg: cfg, logger: logger, debounce: defaultWatchDebounce}, nil
}

// Path returns the resolved file path.
func (s *Store) Path() string {
	return s.path
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// UpdateChannel records the port and baud rate last opened on a channel.
func (s *Store) UpdateChannel(name, port string, baud int) error {
	if !IsChannel(name) {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	if !SupportedBaud(baud) {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}
	return s.mutate(func(cfg *Config) {
		ch := cfg.Channel(name)
		ch.Port = strings.TrimSpace(port)
		ch.Baudrate = baud
		cfg.Channels[name] = ch
	})
}

// SetLogFile changes where a channel's rendered records are appended.
func (s *Store) SetLogFile(name, path string) error {
	if !IsChannel(name) {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("log file path is empty")
	}
	return s.mutate(func(cfg *Config) {
		ch := cfg.Channel(name)
		ch.LogFile = path
		cfg.Channels[name] = ch
	})
}

// ApplyConsole parses each console setting on its own. Invalid fields are
// returned and left untouched; valid ones are applied and saved.
func (s *Store) ApplyConsole(in ConsoleInput) (Config, []FieldError, error) {
	var rejected []FieldError
	values := make(map[string]int, 3)
	for _, f := range []struct{ name, raw string }{
		{"tab_len", in.TabLen},
		{"console_font_size", in.ConsoleFontSize},
		{"max_console_lines", in.MaxConsoleLines},
	} {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			rejected = append(rejected, FieldError{Field: f.name, Value: raw})
			continue
		}
		values[f.name] = n
	}

	if len(values) == 0 {
		return s.Config(), rejected, nil
	}
	err := s.mutate(func(cfg *Config) {
		if n, ok := values["tab_len"]; ok {
			cfg.TabLen = n
		}
		if n, ok := values["console_font_size"]; ok {
			cfg.ConsoleFontSize = n
		}
		if n, ok := values["max_console_lines"]; ok {
			cfg.MaxConsoleLines = n
		}
	})
	return s.Config(), rejected, err
}

// mutate applies fn to a copy and persists it. The in-memory value only
// changes when the write succeeds.
func (s *Store) mutate(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if next.Channels == nil {
		next.Channels = make(map[string]Channel)
	}
	fn(&next)
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.cfg = next
	return nil
}

// Reload rereads the file. It reports whether the values changed.
func (s *Store) Reload() (Config, bool, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return Config{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Equal(s.cfg) {
		return cfg.Clone(), false, nil
	}
	s.cfg = cfg
	return cfg.Clone(), true, nil
}

// Watch reloads the configuration whenever the file changes on disk and emits
// each changed value. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	out := make(chan Config, 1)
	go s.watchLoop(ctx, w, out)
	return out, nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- Config) {
	defer close(out)
	defer func() { _ = w.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			// Editors often write a temp file and rename it over the target.
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("config watcher error")
		case <-fire:
			fire = nil
			cfg, changed, err := s.Reload()
			if err != nil {
				s.logger.Warn().Err(err).Str("path", s.path).Msg("config reload failed")
				continue
			}
			if !changed {
				continue
			}
			s.logger.Info().Str("path", s.path).Msg("config reloaded")
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}
}
