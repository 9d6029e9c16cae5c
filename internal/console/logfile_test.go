package console

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/obcdbg/internal/telemetry"
)

func TestFormatLogLine(t *testing.T) {
	got := FormatLogLine(record(telemetry.Fatal, "core", "dump"))
	assert.Equal(t, "2024-03-09 14:05:07.123456,FATAL,core,dump", got)
}

func TestLogFile_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	first := NewLogFile(path)
	require.NoError(t, first.Append(record(telemetry.Info, "one")))
	require.NoError(t, first.Close())

	second := NewLogFile(path)
	require.NoError(t, second.Append(record(telemetry.Warn, "two")))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2024-03-09 14:05:07.123456,INFO,one\n2024-03-09 14:05:07.123456,WARN,two\n",
		string(data))
}

func TestLogFile_SetPathSwitchesDestination(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	sink := NewLogFile(a)
	t.Cleanup(func() { _ = sink.Close() })
	require.NoError(t, sink.Append(record(telemetry.Info, "to a")))
	require.NoError(t, sink.SetPath(b))
	require.NoError(t, sink.Append(record(telemetry.Info, "to b")))

	assert.Equal(t, b, sink.Path())
	dataA, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Contains(t, string(dataA), "to a")
	dataB, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.NotContains(t, string(dataB), "to a")
	assert.Contains(t, string(dataB), "to b")
}

func TestLogFile_EmptyPath(t *testing.T) {
	sink := NewLogFile("  ")
	assert.Error(t, sink.Append(record(telemetry.Info, "x")))
}

func TestColors(t *testing.T) {
	assert.Equal(t, Palette{Foreground: "#FF0000", Background: "#FFFFFF"}, Colors(telemetry.Fatal))
	assert.Equal(t, Palette{Foreground: "#FFA500", Background: "#000000"}, Colors(telemetry.Warn))
	assert.Equal(t, Colors(telemetry.Debug), Colors(telemetry.None), "non-record levels fall back to DEBUG")
}
