package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/obcdbg/internal/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestResolveChannel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{config.ChannelMain, config.ChannelMain},
		{"main", config.ChannelMain},
		{"Trans", config.ChannelTransmit},
		{"tx", config.ChannelTransmit},
		{"RX", config.ChannelReceive},
	}
	for _, tt := range tests {
		got, err := resolveChannel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := resolveChannel("gpu")
	assert.ErrorIs(t, err, config.ErrUnknownChannel)
}

func TestPortsCommand(t *testing.T) {
	orig := listPorts
	t.Cleanup(func() { listPorts = orig })

	listPorts = func() ([]string, error) { return []string{"/dev/ttyACM0", "/dev/ttyUSB0"}, nil }
	out, _, err := execute(t, "ports")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0\n/dev/ttyUSB0\n", out)

	listPorts = func() ([]string, error) { return nil, nil }
	out, _, err = execute(t, "ports")
	require.NoError(t, err)
	assert.Equal(t, "no serial ports found\n", out)

	listPorts = func() ([]string, error) { return nil, errors.New("boom") }
	_, _, err = execute(t, "ports")
	assert.Error(t, err)
}

func TestTailCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	logPath := filepath.Join(dir, "rcv.csv")

	cfg := config.Default()
	ch := cfg.Channel(config.ChannelReceive)
	ch.LogFile = logPath
	cfg.Channels[config.ChannelReceive] = ch
	require.NoError(t, config.Save(cfgPath, cfg))

	log := strings.Join([]string{
		"2024-03-09 14:05:07.000001,INFO,first",
		"garbage",
		"2024-03-09 14:05:08.000002,WARN,low,battery",
		"2024-03-09 14:05:09.000003,INFO,Hello,World",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(logPath, []byte(log), 0o644))

	out, errOut, err := execute(t, "--config", cfgPath, "tail", "receive", "-n", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "14:05:08.000002  WARN   low     battery", lines[0])
	assert.Equal(t, "14:05:09.000003  INFO   Hello   World", lines[1])
	assert.Contains(t, errOut, "skipped 1")
}

func TestTailCommand_MissingLogIsEmpty(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, _, err := execute(t, "--config", filepath.Join(dir, "config.toml"), "tail", "tx")
	require.NoError(t, err)
	assert.Empty(t, out)
}
