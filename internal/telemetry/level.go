package telemetry

import (
	"strings"
	"sync/atomic"
)

// Level is the severity tag of a telemetry line.
type Level int8

// Record levels in rank order. None only exists as a filter threshold.
const (
	Debug Level = iota
	Info
	Warn
	Error
	Fatal
	None
)

// thresholdCount is the number of selectable thresholds (Debug..None).
const thresholdCount = int(None) + 1

var levelNames = [...]string{
	Debug: "DEBUG",
	Info:  "INFO",
	Warn:  "WARN",
	Error: "ERROR",
	Fatal: "FATAL",
	None:  "NONE",
}

// String returns the wire name of the level.
func (l Level) String() string {
	if l < Debug || l > None {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Rank returns the numeric rank used for filtering.
func (l Level) Rank() int {
	return int(l)
}

// IsRecordLevel reports whether l may appear on a record (everything but None).
func (l Level) IsRecordLevel() bool {
	return l >= Debug && l <= Fatal
}

// Levels returns every selectable threshold in rank order.
func Levels() []Level {
	return []Level{Debug, Info, Warn, Error, Fatal, None}
}

// ParseLevel resolves a level name, case-insensitively. NONE is accepted so
// thresholds can be parsed from flags and preferences.
func ParseLevel(name string) (Level, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range levelNames {
		if n == upper {
			return Level(i), true
		}
	}
	return Debug, false
}

// Admit reports whether a record of the given level passes the threshold.
func Admit(level, threshold Level) bool {
	return level.Rank() >= threshold.Rank()
}

// Threshold is the verbosity threshold shared between the UI, which changes
// it, and the reader goroutine, which consults it for every parsed line.
type Threshold struct {
	v atomic.Int32
}

// NewThreshold returns a threshold initialised to level.
func NewThreshold(level Level) *Threshold {
	t := &Threshold{}
	t.Set(level)
	return t
}

// Load returns the current threshold.
func (t *Threshold) Load() Level {
	return Level(t.v.Load())
}

// Set replaces the threshold. Out-of-range values are clamped.
func (t *Threshold) Set(level Level) {
	if level < Debug {
		level = Debug
	}
	if level > None {
		level = None
	}
	t.v.Store(int32(level))
}

// Step moves the threshold by delta, wrapping around DEBUG..NONE, and returns
// the new value.
func (t *Threshold) Step(delta int) Level {
	for {
		cur := t.v.Load()
		next := Cycle(Level(cur), delta)
		if t.v.CompareAndSwap(cur, int32(next)) {
			return next
		}
	}
}

// Cycle returns level moved by delta positions, modulo the six thresholds.
func Cycle(level Level, delta int) Level {
	n := (int(level) + delta) % thresholdCount
	if n < 0 {
		n += thresholdCount
	}
	return Level(n)
}
