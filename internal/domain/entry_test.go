package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in    string
		want  Priority
		valid bool
	}{
		{"0", PriorityEmergency, true},
		{"3", PriorityError, true},
		{"7", PriorityDebug, true},
		{"err", PriorityError, true},
		{"error", PriorityError, true},
		{"WARNING", PriorityWarning, true},
		{"warn", PriorityWarning, true},
		{"info", PriorityInfo, true},
		{"8", Priority(8), false},
		{"-1", Priority(-1), false},
		{"loud", DefaultPriority, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePriority(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "err", PriorityError.String())
	assert.Equal(t, "debug", PriorityDebug.String())
	assert.Equal(t, "12", Priority(12).String())
}

func TestMicrosConversion(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 45, 123456000, time.UTC)
	us := TimeToMicros(ts)
	assert.Equal(t, uint64(ts.UnixMicro()), us)
	assert.True(t, ts.Equal(MicrosToTime(us)))

	assert.Equal(t, uint64(0), TimeToMicros(time.Unix(-10, 0)))

	e := Entry{TimestampMicros: us}
	assert.True(t, ts.Equal(e.Time()))
}
