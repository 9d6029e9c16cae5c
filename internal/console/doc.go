// Package console turns telemetry records into console lines.
//
// Fields are joined on tab stops of a configurable width. Records whose first
// field is TQDM are progress-bar updates and redraw the previous line when it
// was also a progress bar. Every rendered record is appended to the channel's
// log file as "<timestamp>,<LEVEL>,<field>,...". The Renderer keeps a bounded
// scrollback and is owned by a single goroutine.
package console
