package console

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/obcdbg/internal/telemetry"
)

// DefaultScrollback is the number of console lines kept when unconfigured.
const DefaultScrollback = 1000

// Line is one visible console line.
type Line struct {
	Level    telemetry.Level
	Text     string
	Progress bool
}

// Instruction tells the UI surface how to apply one render.
type Instruction struct {
	Line      Line
	Overwrite bool // replace the last visible line instead of appending
	Trimmed   int  // oldest lines dropped to honour the scrollback cap
}

// Options configure a Renderer.
type Options struct {
	TabWidth   int
	Scrollback int // <= 0 keeps every line
	Sink       Sink
	Logger     zerolog.Logger
}

// Renderer formats records into console lines and persists them. It is not
// safe for concurrent use; the render loop owns it.
type Renderer struct {
	tabWidth        int
	scrollback      int
	autoscroll      bool
	lastWasProgress bool
	lines           []Line
	sink            Sink
	logger          zerolog.Logger
	version         uint64
}

// NewRenderer returns an empty console with autoscroll enabled.
func NewRenderer(opts Options) *Renderer {
	if opts.TabWidth < 1 {
		opts.TabWidth = DefaultTabWidth
	}
	return &Renderer{
		tabWidth:   opts.TabWidth,
		scrollback: opts.Scrollback,
		autoscroll: true,
		sink:       opts.Sink,
		logger:     opts.Logger,
	}
}

// Render formats one record, applies it to the console buffer and appends it
// to the sink. It returns false when the record was dropped.
func (r *Renderer) Render(rec telemetry.Record) (Instruction, bool) {
	fields := rec.Fields()
	progress := IsProgress(fields)

	var text string
	if progress {
		p, err := ParseProgress(fields)
		if err != nil {
			r.logger.Warn().Err(err).Strs("fields", fields).Msg("dropping progress record")
			return Instruction{}, false
		}
		text = p.Render(r.tabWidth)
	} else {
		text = FormatFields(fields, r.tabWidth)
	}

	line := Line{Level: rec.Level, Text: text, Progress: progress}
	ins := Instruction{Line: line}
	if progress && r.lastWasProgress && len(r.lines) > 0 {
		r.lines[len(r.lines)-1] = line
		ins.Overwrite = true
	} else {
		r.lines = append(r.lines, line)
	}
	r.lastWasProgress = progress
	ins.Trimmed = r.trim()
	r.version++

	if r.sink != nil {
		if err := r.sink.Append(rec); err != nil {
			r.logger.Warn().Err(err).Msg("log persistence failed")
		}
	}
	return ins, true
}

// trim drops the oldest lines beyond the scrollback cap.
func (r *Renderer) trim() int {
	if r.scrollback <= 0 {
		return 0
	}
	overflow := len(r.lines) - r.scrollback
	if overflow <= 0 {
		return 0
	}
	r.lines = append([]Line(nil), r.lines[overflow:]...)
	return overflow
}

// Lines returns a copy of the visible lines, oldest first.
func (r *Renderer) Lines() []Line {
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of visible lines.
func (r *Renderer) Len() int {
	return len(r.lines)
}

// Text returns the console content as plain text for copying.
func (r *Renderer) Text() string {
	var b strings.Builder
	for i, l := range r.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

// Search returns the indices of lines matching query, case-insensitively.
func (r *Renderer) Search(query string) ([]int, error) {
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return nil, fmt.Errorf("compile search: %w", err)
	}
	var matches []int
	for i, l := range r.lines {
		if re.MatchString(l.Text) {
			matches = append(matches, i)
		}
	}
	return matches, nil
}

// Clear empties the console. The log file is untouched.
func (r *Renderer) Clear() {
	r.lines = nil
	r.lastWasProgress = false
	r.version++
}

// Version changes whenever the visible content changes.
func (r *Renderer) Version() uint64 {
	return r.version
}

// TabWidth returns the current tab stop.
func (r *Renderer) TabWidth() int {
	return r.tabWidth
}

// SetTabWidth changes the tab stop for subsequent renders. Values below 1 are
// ignored.
func (r *Renderer) SetTabWidth(width int) {
	if width >= 1 {
		r.tabWidth = width
	}
}

// Scrollback returns the current line cap.
func (r *Renderer) Scrollback() int {
	return r.scrollback
}

// SetScrollback changes the cap and trims immediately.
func (r *Renderer) SetScrollback(n int) {
	r.scrollback = n
	if r.trim() > 0 {
		r.version++
	}
}

// Autoscroll reports whether the view should follow new lines.
func (r *Renderer) Autoscroll() bool {
	return r.autoscroll
}

// SetAutoscroll toggles following new lines.
func (r *Renderer) SetAutoscroll(on bool) {
	r.autoscroll = on
}

// SetSink replaces the persistence destination.
func (r *Renderer) SetSink(s Sink) {
	r.sink = s
}
