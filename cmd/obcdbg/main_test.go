package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_BadFlagFails(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"--channel", "bogus"}, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "obcdbg: ")
	assert.Contains(t, stderr.String(), "bogus")
}

func TestRun_MissingDeviceHasOwnExitCode(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--headless",
		"--config", filepath.Join(dir, "config.toml"),
		"--prefs", filepath.Join(dir, "prefs.toml"),
		"--debug-log", filepath.Join(dir, "diagnostic.log"),
		"--log-file", filepath.Join(dir, "main.csv"),
		"--port", filepath.Join(dir, "ttyMissing"),
	}, &stderr)

	assert.Equal(t, exitNoDevice, code)
	assert.Contains(t, stderr.String(), "ttyMissing")
}
