package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/obcdbg/internal/console"
	"github.com/five82/obcdbg/internal/telemetry"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.csv"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v, want nil, nil", got, err)
	}
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		level  telemetry.Level
		fields []string
	}{
		{
			name:   "info record",
			line:   "2024-03-09 14:05:07.123456,INFO,Hello,World",
			ok:     true,
			level:  telemetry.Info,
			fields: []string{"Hello", "World"},
		},
		{
			name:   "progress record",
			line:   "2024-03-09 14:05:07.000001,DEBUG,TQDM,flash,MSG,3,9",
			ok:     true,
			level:  telemetry.Debug,
			fields: []string{"TQDM", "flash", "MSG", "3", "9"},
		},
		{name: "bad timestamp", line: "yesterday,INFO,x"},
		{name: "unknown level", line: "2024-03-09 14:05:07.123456,TRACE,x"},
		{name: "no separator", line: "2024-03-09 14:05:07.123456"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseEntry(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseEntry() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if rec.Level != tt.level {
				t.Errorf("Level = %v, want %v", rec.Level, tt.level)
			}
			if !reflect.DeepEqual(rec.Fields(), tt.fields) {
				t.Errorf("Fields() = %v, want %v", rec.Fields(), tt.fields)
			}
		})
	}
}

func TestParseEntry_RoundTripsLogLine(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.Local)
	rec := telemetry.NewRecord(telemetry.Warn, at, []string{"temp", "81"})

	got, ok := ParseEntry(console.FormatLogLine(rec))
	if !ok {
		t.Fatalf("ParseEntry() rejected its own log line")
	}
	if !got.Time.Equal(at) {
		t.Errorf("Time = %v, want %v", got.Time, at)
	}
}

func TestReadRecords_CountsSkipped(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log_main_cpu.csv")
	content := strings.Join([]string{
		"2024-03-09 14:05:07.123456,INFO,one",
		"garbage",
		"2024-03-09 14:05:08.000000,ERROR,two",
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	records, skipped, err := ReadRecords(logPath, 0)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(records) != 2 || skipped != 1 {
		t.Fatalf("ReadRecords() = %d records, %d skipped; want 2, 1", len(records), skipped)
	}
	if records[1].Level != telemetry.Error {
		t.Errorf("records[1].Level = %v, want ERROR", records[1].Level)
	}
}
