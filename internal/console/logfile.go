package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/five82/obcdbg/internal/telemetry"
)

// TimestampLayout is the capture-time format written to log files.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Sink persists rendered records.
type Sink interface {
	Append(rec telemetry.Record) error
}

// FormatLogLine renders a record as "<timestamp>,<LEVEL>,<field>,...".
func FormatLogLine(rec telemetry.Record) string {
	parts := make([]string, 0, rec.NumFields()+2)
	parts = append(parts, rec.Time.Format(TimestampLayout), rec.Level.String())
	parts = append(parts, rec.Fields()...)
	return strings.Join(parts, ",")
}

// LogFile appends records to a text file, one per line. The file is opened
// on first use and reopened when the path changes.
type LogFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewLogFile returns a sink for path. Nothing is created until the first
// Append.
func NewLogFile(path string) *LogFile {
	return &LogFile{path: path}
}

// Path returns the current destination.
func (l *LogFile) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// SetPath switches the destination, closing the previous file.
func (l *LogFile) SetPath(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if path == l.path {
		return nil
	}
	err := l.closeLocked()
	l.path = path
	return err
}

// Append writes one record.
func (l *LogFile) Append(rec telemetry.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if strings.TrimSpace(l.path) == "" {
			return fmt.Errorf("log file path is empty")
		}
		if dir := filepath.Dir(l.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		l.file = f
	}

	if _, err := l.file.WriteString(FormatLogLine(rec) + "\n"); err != nil {
		// Drop the handle so the next append retries the open.
		_ = l.closeLocked()
		return fmt.Errorf("write log file: %w", err)
	}
	return nil
}

// Close releases the file handle.
func (l *LogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *LogFile) closeLocked() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
