// Package app is the composition root for obcdbg.
//
// # Overview
//
// Run and RunHeadless share one pipeline built from Options:
//
//	config.Store ──> channel, port, baud, log file
//	prefs        ──> theme, last channel, verbosity, autoscroll
//	telemetry.Reader ──> telemetry.Queue ──> console.Renderer ──> console.LogFile
//	                 └─> state.Store (counters, last error)
//
// The reader goroutine is the only producer. The consumer is either the
// Bubble Tea tick (Run) or StartDrainer (RunHeadless); both pop at most one
// record per tick.
//
// # Diagnostics
//
// The TUI owns the terminal, so diagnostics go to a zerolog file logger
// (DefaultDiagnosticsPath). Passing "-" sends them to stderr instead, which is
// handy with --headless where stdout carries the records.
//
// # Errors
//
// Bad flags (unknown channel or level, unsupported baud) and config parse
// errors fail before anything is opened. In headless mode a failed open is
// returned as is, and a session that ends on a read error is returned as
// "session ended: <cause>". Cancelling the context is a clean exit.
package app
