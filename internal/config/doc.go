// Package config loads and persists the obcdbg configuration document.
//
// # Overview
//
// The configuration is a TOML file holding console settings and one table per
// telemetry channel:
//
//	tab_len = 8
//	console_font_size = 12
//	max_console_lines = 1000
//
//	[channels."Main CPU"]
//	port = "/dev/ttyUSB0"
//	baudrate = 115200
//	log_file = "log_main_cpu.csv"
//
// The channels are "Main CPU", "Transmit CPU" and "Receive CPU". Each one
// remembers the port and baud rate it was last opened with and names the log
// file its rendered records are appended to.
//
// # Loading
//
// Load resolves "~", creates the file with defaults when it is absent and
// replaces missing or invalid values with defaults. A file that is not valid
// TOML is an error.
//
// # Store
//
// Store wraps the document for concurrent use. UpdateChannel, SetLogFile and
// ApplyConsole write the new document back to disk before the in-memory copy
// changes. ApplyConsole takes the raw text of the settings form; each field is
// parsed on its own, so one bad value does not block the others.
//
// Watch follows the file with fsnotify and emits the reloaded document after
// external edits settle. Writes made through the Store reload to the same
// values and are not emitted.
package config
