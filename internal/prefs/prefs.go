// Package prefs handles obcdbg user preferences persistence.
// Preferences are stored in ~/.config/obcdbg/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/obcdbg/internal/telemetry"
)

// Prefs holds UI state remembered between runs.
type Prefs struct {
	Theme      string `toml:"theme"`
	Channel    string `toml:"channel"`
	Verbosity  string `toml:"verbosity"`
	Autoscroll bool   `toml:"autoscroll"`
}

const (
	defaultPrefsPath = "~/.config/obcdbg/prefs.toml"
	defaultTheme     = "Channel"
	defaultChannel   = "Main CPU"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{
		Theme:      defaultTheme,
		Channel:    defaultChannel,
		Verbosity:  telemetry.Debug.String(),
		Autoscroll: true,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Level returns the stored verbosity threshold, DEBUG when unset or invalid.
func (p Prefs) Level() telemetry.Level {
	if level, ok := telemetry.ParseLevel(p.Verbosity); ok {
		return level
	}
	return telemetry.Debug
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	var raw struct {
		Theme      string `toml:"theme"`
		Channel    string `toml:"channel"`
		Verbosity  string `toml:"verbosity"`
		Autoscroll *bool  `toml:"autoscroll"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Default(), nil // Graceful degradation
	}

	if v := strings.TrimSpace(raw.Theme); v != "" {
		prefs.Theme = v
	}
	if v := strings.TrimSpace(raw.Channel); v != "" {
		prefs.Channel = v
	}
	if level, ok := telemetry.ParseLevel(raw.Verbosity); ok {
		prefs.Verbosity = level.String()
	}
	if raw.Autoscroll != nil {
		prefs.Autoscroll = *raw.Autoscroll
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
