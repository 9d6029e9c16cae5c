package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDiagnosticsPath is where diagnostics go while the TUI owns the
// terminal.
const DefaultDiagnosticsPath = "~/.local/state/obcdbg/diagnostic.log"

// OpenDiagnostics returns the process logger. A path of "-" logs to stderr in
// console format; anything else is appended to as JSON lines.
func OpenDiagnostics(path string, debug bool) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if path == "-" {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), func() error { return nil }, nil
	}

	if strings.TrimSpace(path) == "" {
		path = DefaultDiagnosticsPath
	}
	resolved, err := expandHome(path)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create diagnostics dir: %w", err)
	}
	f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open diagnostics log: %w", err)
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, f.Close, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
