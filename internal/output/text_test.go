package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/journalq/internal/domain"
)

func TestTextWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, Plain)

	require.NoError(t, w.Write(sampleEntry(), ""))
	assert.Equal(t, "2024-01-15T10:30:45.123456Z ERR web-1 nginx.service[nginx]: upstream <timed out>\n", buf.String())
}

func TestTextWriter_WriteIdentifierOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, Plain)

	e := sampleEntry()
	e.Unit = ""
	e.Priority = domain.PriorityInfo
	require.NoError(t, w.Write(e, ""))
	assert.Contains(t, buf.String(), " INF web-1 nginx: ")
}

func TestTextWriter_WriteHosts(t *testing.T) {
	t.Run("renders table", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewTextWriter(&buf, Plain)
		hosts := domain.NewHosts(map[string]map[string]struct{}{
			"web-1": {"nginx.service": {}, "sshd.service": {}},
		})

		require.NoError(t, w.WriteHosts(hosts))
		out := buf.String()
		assert.Contains(t, out, "web-1")
		assert.Contains(t, out, "nginx.service, sshd.service")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTextWriter(&buf, Plain).WriteHosts(domain.Hosts{}))
		assert.Equal(t, "no hosts found\n", buf.String())
	})
}

func TestTextWriter_WriteError(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, Plain)

	require.NoError(t, w.WriteError("INVALID_RANGE", "start after end", "swap --start and --end"))
	assert.Equal(t, "Error [INVALID_RANGE]: start after end\nhint: swap --start and --end\n", buf.String())
}

func TestTextWriter_WriteStats(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, Plain)

	require.NoError(t, w.WriteStats(&StatsOutput{Command: "tail", Unit: "a.service", Emitted: 3, DurationMS: 12}))
	assert.Equal(t, "[TAIL] a.service emitted=3 duration=12ms\n", buf.String())
}

func TestPalette_StatusText(t *testing.T) {
	s := domain.NewLogSummary()
	assert.Equal(t, "OK", Plain.StatusText(s))
	s.HasErrors = true
	assert.Equal(t, "ERRORS DETECTED", Plain.StatusText(s))
	s.HasCritical = true
	assert.Equal(t, "CRITICAL ENTRIES", Plain.StatusText(s))
}

func TestPalette_PriorityIndicator(t *testing.T) {
	tests := map[domain.Priority]string{
		domain.PriorityEmergency: "EMR",
		domain.PriorityWarning:   "WRN",
		domain.PriorityDebug:     "DBG",
		domain.Priority(12):      "???",
	}
	for prio, want := range tests {
		assert.Equal(t, want, Plain.PriorityIndicator(prio))
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, ColorEnabled(&buf))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(&buf))
}
