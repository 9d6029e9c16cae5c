package console

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Reserved fields of a progress-bar record: TQDM,<label...>,MSG,<step>,<max>.
const (
	ProgressMarker    = "TQDM"
	ProgressSeparator = "MSG"
	ProgressBarWidth  = 30
)

var (
	// ErrMalformedProgress means a TQDM record did not follow the layout.
	ErrMalformedProgress = errors.New("malformed progress record")
	// ErrZeroMaxStep means the progress total was zero.
	ErrZeroMaxStep = errors.New("progress max step is zero")
)

// Progress is a decoded progress-bar update.
type Progress struct {
	Label []string
	Step  int
	Max   int
}

// IsProgress reports whether fields carry the progress marker.
func IsProgress(fields []string) bool {
	return len(fields) > 0 && fields[0] == ProgressMarker
}

// ParseProgress decodes a progress record's fields.
func ParseProgress(fields []string) (Progress, error) {
	if !IsProgress(fields) {
		return Progress{}, fmt.Errorf("%w: missing %s marker", ErrMalformedProgress, ProgressMarker)
	}
	sep := -1
	for i := 1; i < len(fields); i++ {
		if fields[i] == ProgressSeparator {
			sep = i
			break
		}
	}
	if sep < 0 {
		return Progress{}, fmt.Errorf("%w: missing %s separator", ErrMalformedProgress, ProgressSeparator)
	}
	tail := fields[sep+1:]
	if len(tail) != 2 {
		return Progress{}, fmt.Errorf("%w: want step and max after %s, got %d fields", ErrMalformedProgress, ProgressSeparator, len(tail))
	}

	step, err := strconv.Atoi(strings.TrimSpace(tail[0]))
	if err != nil {
		return Progress{}, fmt.Errorf("%w: step %q", ErrMalformedProgress, tail[0])
	}
	maxStep, err := strconv.Atoi(strings.TrimSpace(tail[1]))
	if err != nil {
		return Progress{}, fmt.Errorf("%w: max step %q", ErrMalformedProgress, tail[1])
	}
	if step < 0 || maxStep < 0 {
		return Progress{}, fmt.Errorf("%w: negative step %d/%d", ErrMalformedProgress, step, maxStep)
	}
	if maxStep == 0 {
		return Progress{}, ErrZeroMaxStep
	}

	label := make([]string, sep-1)
	copy(label, fields[1:sep])
	return Progress{Label: label, Step: step, Max: maxStep}, nil
}

// Filled returns how many bar cells are complete, clamped to the bar width.
func (p Progress) Filled() int {
	switch {
	case p.Max <= 0 || p.Step <= 0:
		return 0
	case p.Step >= p.Max:
		return ProgressBarWidth
	}
	// Step < Max, so the 128-bit product divides without overflow.
	hi, lo := bits.Mul64(uint64(p.Step), ProgressBarWidth)
	n, _ := bits.Div64(hi, lo, uint64(p.Max))
	return int(n)
}

// Render draws the single-line bar: "<label> [   6 /  10] ####...   |".
func (p Progress) Render(tabWidth int) string {
	filled := p.Filled()
	bar := strings.Repeat("#", filled) + strings.Repeat(" ", ProgressBarWidth-filled)
	counter := fmt.Sprintf("[%4d /%4d]", p.Step, p.Max)
	label := FormatFields(p.Label, tabWidth)
	if label == "" {
		return counter + " " + bar + "|"
	}
	return label + " " + counter + " " + bar + "|"
}
