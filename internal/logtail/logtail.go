package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/five82/obcdbg/internal/console"
	"github.com/five82/obcdbg/internal/telemetry"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// ParseEntry decodes one persisted "<timestamp>,<LEVEL>,<field>,..." line.
// Timestamps are read in local time, the zone they were written in.
func ParseEntry(line string) (telemetry.Record, bool) {
	stamp, rest, ok := strings.Cut(line, ",")
	if !ok {
		return telemetry.Record{}, false
	}
	at, err := time.ParseInLocation(console.TimestampLayout, stamp, time.Local)
	if err != nil {
		return telemetry.Record{}, false
	}
	return telemetry.ParseLine([]byte(rest), at)
}

// ReadRecords returns the records among the last maxLines lines of path and
// how many lines could not be parsed.
func ReadRecords(path string, maxLines int) ([]telemetry.Record, int, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, 0, err
	}
	records := make([]telemetry.Record, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		rec, ok := ParseEntry(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
