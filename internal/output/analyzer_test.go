package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/journalq/internal/domain"
)

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "replaces hex addresses",
			input:    "Pointer at 0x7fff5fbff8c0 is invalid",
			expected: "Pointer at <addr> is invalid",
		},
		{
			name:     "replaces numbers",
			input:    "Failed after 123 attempts with code 456",
			expected: "Failed after <n> attempts with code <n>",
		},
		{
			name:     "replaces UUIDs",
			input:    "Device 12345678-1234-1234-1234-123456789abc not found",
			expected: "Device <uuid> not found",
		},
		{
			name:     "truncates long messages",
			input:    "This is a very long message that exceeds one hundred characters and should be truncated at the limit to prevent overly verbose output",
			expected: "This is a very long message that exceeds one hundred characters and should be truncated at the limit...",
		},
		{
			name:     "trims whitespace",
			input:    "  Message with spaces  ",
			expected: "Message with spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeMessage(tt.input))
		})
	}
}

func entryAt(sec int64, unit string, prio domain.Priority, msg string) domain.Entry {
	return domain.Entry{
		TimestampMicros: uint64(sec) * 1_000_000,
		Unit:            unit,
		Priority:        prio,
		Message:         msg,
	}
}

func TestAnalyzer_Summarize(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		s := NewAnalyzer().Summarize(nil)
		assert.Equal(t, "summary", s.Type)
		assert.Zero(t, s.TotalCount)
		assert.False(t, s.HasErrors)
		assert.True(t, s.WindowStart.IsZero())
	})

	t.Run("counts priorities", func(t *testing.T) {
		entries := []domain.Entry{
			entryAt(1000, "a.service", domain.PriorityInfo, "started"),
			entryAt(1030, "a.service", domain.PriorityError, "request 1 failed"),
			entryAt(1060, "b.service", domain.PriorityError, "request 2 failed"),
			entryAt(1090, "b.service", domain.PriorityCritical, "disk gone"),
			entryAt(1120, "", domain.PriorityWarning, "slow"),
		}
		s := NewAnalyzer().Summarize(entries)

		assert.Equal(t, 5, s.TotalCount)
		assert.Equal(t, 2, s.ErrorCount)
		assert.Equal(t, 1, s.CriticalCount)
		assert.Equal(t, 1, s.WarningCount)
		assert.Equal(t, 2, s.PriorityCount[int(domain.PriorityError)])
		assert.Equal(t, map[string]int{"a.service": 2, "b.service": 2}, s.Units)
		assert.True(t, s.HasErrors)
		assert.True(t, s.HasCritical)
		assert.Equal(t, time.Unix(1000, 0).UTC(), s.WindowStart)
		assert.Equal(t, time.Unix(1120, 0).UTC(), s.WindowEnd)
		assert.InDelta(t, 1.5, s.ErrorRate, 0.001)
		require.NotEmpty(t, s.TopErrors)
		assert.Equal(t, "request <n> failed", s.TopErrors[0])
	})
}

func TestAnalyzer_Patterns(t *testing.T) {
	a := NewAnalyzer()
	for i, msg := range []string{"timeout after 10ms", "timeout after 20ms", "timeout after 30ms", "timeout after 40ms", "one-off"} {
		e := entryAt(int64(i), "a.service", domain.PriorityError, msg)
		a.Add(&e)
	}
	info := entryAt(9, "a.service", domain.PriorityInfo, "timeout after 50ms")
	a.Add(&info)

	patterns := a.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, "timeout after <n>ms", patterns[0].Pattern)
	assert.Equal(t, 4, patterns[0].Count)
	assert.Len(t, patterns[0].Samples, maxSamples)
}

func TestNewAnalysisOutput(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := NewAnalysisOutput(domain.NewLogSummary(), nil, now)
	assert.Equal(t, "analysis", out.Type)
	assert.Equal(t, SchemaVersion, out.Summary.SchemaVersion)
	assert.Equal(t, now, out.Timestamp)
}
