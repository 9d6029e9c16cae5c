// Package ui provides the terminal console for obcdbg.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model is a value type; Update returns the
// next model and View renders it with Lipgloss. The model owns nothing that
// outlives it: the serial reader, queue, status store and renderer are passed
// in through Options and shared with the rest of the process.
//
// # Render Loop
//
// A tick message fires every Options.Tick (2ms by default). Each tick pops at
// most one record from the telemetry queue, renders it through the console
// renderer and applies the resulting instruction to a cache of styled lines:
// appends add a line, progress overwrites replace the last one and scrollback
// trims drop from the front. The viewport content is only reset when the cache
// changed.
//
// # Session Controls
//
// Opening and closing the port runs as tea.Cmd so a slow device never blocks
// the render loop. Port, baud rate, channel and log file cannot change while a
// session is open. A session that ends on its own with an error raises a
// modal; any key dismisses it.
//
// # Files
//
//   - app.go: Model, Options, Update and the session commands
//   - console.go: viewport cache, navigation and search
//   - header.go: status line and command bar
//   - settings.go: console settings form
//   - help.go, modal.go: overlays
//   - theme.go, keys.go, style_helpers.go: presentation
package ui
