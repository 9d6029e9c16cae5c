package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_AllLevelThresholdPairs(t *testing.T) {
	for _, level := range []Level{Debug, Info, Warn, Error, Fatal} {
		for _, threshold := range Levels() {
			want := level.Rank() >= threshold.Rank()
			assert.Equalf(t, want, Admit(level, threshold), "Admit(%s, %s)", level, threshold)
		}
	}
	assert.False(t, Admit(Fatal, None), "NONE must reject every record")
	assert.True(t, Admit(Debug, Debug), "DEBUG must admit every record")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"DEBUG", Debug, true},
		{"info", Info, true},
		{" Warn ", Warn, true},
		{"ERROR", Error, true},
		{"fatal", Fatal, true},
		{"NONE", None, true},
		{"TRACE", Debug, false},
		{"", Debug, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equalf(t, tt.ok, ok, "ParseLevel(%q) ok", tt.in)
		assert.Equalf(t, tt.want, got, "ParseLevel(%q)", tt.in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", Debug.String())
	assert.Equal(t, "FATAL", Fatal.String())
	assert.Equal(t, "NONE", None.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
	assert.True(t, Fatal.IsRecordLevel())
	assert.False(t, None.IsRecordLevel())
}

func TestCycle_WrapsOverSixThresholds(t *testing.T) {
	assert.Equal(t, Info, Cycle(Debug, 1))
	assert.Equal(t, Debug, Cycle(None, 1))
	assert.Equal(t, None, Cycle(Debug, -1))
	assert.Equal(t, Warn, Cycle(Warn, 6))
	assert.Equal(t, Fatal, Cycle(Info, -3))
}

func TestThreshold_StepAndSet(t *testing.T) {
	th := NewThreshold(Fatal)
	assert.Equal(t, None, th.Step(1))
	assert.Equal(t, Debug, th.Step(1))
	assert.Equal(t, None, th.Step(-1))

	th.Set(Level(-3))
	assert.Equal(t, Debug, th.Load())
	th.Set(Level(99))
	assert.Equal(t, None, th.Load())
}
