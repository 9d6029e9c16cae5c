// Package logtail reads persisted channel logs back.
//
// # Reading Log Files
//
// Read extracts the last maxLines lines of a file in one sequential pass using
// a ring buffer, so memory stays proportional to maxLines rather than the file
// size. A non-positive maxLines returns the whole file. Missing files yield
// nil, nil.
//
//	lines, err := logtail.Read("log_main_cpu.csv", 200)
//
// # Parsing Entries
//
// Channel logs hold one rendered record per line:
//
//	2024-03-09 14:05:07.123456,INFO,Hello,World
//
// ParseEntry splits off the timestamp and hands the remainder to the same
// parser the serial reader uses, so a line that was accepted on the wire is
// accepted here too. ReadRecords combines both and reports how many lines were
// skipped.
package logtail
