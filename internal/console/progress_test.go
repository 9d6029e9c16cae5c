package console

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgress(t *testing.T) {
	p, err := ParseProgress([]string{"TQDM", "flash", "MSG", "6", "10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"flash"}, p.Label)
	assert.Equal(t, 6, p.Step)
	assert.Equal(t, 10, p.Max)
}

func TestParseProgress_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   error
	}{
		{name: "no marker", fields: []string{"flash", "MSG", "1", "2"}, want: ErrMalformedProgress},
		{name: "no separator", fields: []string{"TQDM", "flash", "1", "2"}, want: ErrMalformedProgress},
		{name: "missing max", fields: []string{"TQDM", "MSG", "1"}, want: ErrMalformedProgress},
		{name: "extra field", fields: []string{"TQDM", "MSG", "1", "2", "3"}, want: ErrMalformedProgress},
		{name: "non numeric", fields: []string{"TQDM", "MSG", "one", "2"}, want: ErrMalformedProgress},
		{name: "negative", fields: []string{"TQDM", "MSG", "-1", "2"}, want: ErrMalformedProgress},
		{name: "zero max", fields: []string{"TQDM", "MSG", "1", "0"}, want: ErrZeroMaxStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgress(tt.fields)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProgressFilled(t *testing.T) {
	assert.Equal(t, 0, Progress{Step: 0, Max: 10}.Filled())
	assert.Equal(t, 18, Progress{Step: 6, Max: 10}.Filled())
	assert.Equal(t, ProgressBarWidth, Progress{Step: 10, Max: 10}.Filled())
	assert.Equal(t, ProgressBarWidth, Progress{Step: 25, Max: 10}.Filled(), "overshoot clamps")
}

func TestProgressFilled_LargeCounters(t *testing.T) {
	p, err := ParseProgress([]string{"TQDM", "L", "MSG", "400000000000000000", "400000000000000000"})
	require.NoError(t, err)
	assert.Equal(t, ProgressBarWidth, p.Filled())

	assert.Equal(t, 15, Progress{Step: 200000000000000000, Max: 400000000000000000}.Filled())
	assert.Equal(t, 29, Progress{Step: math.MaxInt - 1, Max: math.MaxInt}.Filled())
}

func TestProgressRender(t *testing.T) {
	got := Progress{Label: []string{"flash"}, Step: 6, Max: 10}.Render(DefaultTabWidth)

	assert.True(t, strings.HasPrefix(got, "flash [   6 /  10] "), got)
	assert.True(t, strings.HasSuffix(got, "|"), got)
	assert.Equal(t, 18, strings.Count(got, "#"))
	assert.Len(t, got, len("flash [   6 /  10] ")+ProgressBarWidth+1)
}

func TestProgressRender_NoLabel(t *testing.T) {
	got := Progress{Step: 0, Max: 4}.Render(DefaultTabWidth)
	assert.Equal(t, "[   0 /   4] "+strings.Repeat(" ", ProgressBarWidth)+"|", got)
}
