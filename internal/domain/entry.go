package domain

import (
	"strconv"
	"strings"
	"time"
)

// Priority is the syslog severity of an entry (lower = more severe)
type Priority int

const (
	PriorityEmergency Priority = 0
	PriorityAlert     Priority = 1
	PriorityCritical  Priority = 2
	PriorityError     Priority = 3
	PriorityWarning   Priority = 4
	PriorityNotice    Priority = 5
	PriorityInfo      Priority = 6
	PriorityDebug     Priority = 7
)

// DefaultPriority is used when an entry carries no usable PRIORITY field.
const DefaultPriority = PriorityInfo

var priorityNames = [...]string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"}

// Valid reports whether p is within the syslog range 0-7
func (p Priority) Valid() bool {
	return p >= PriorityEmergency && p <= PriorityDebug
}

// String returns the journalctl keyword for the priority
func (p Priority) String() string {
	if !p.Valid() {
		return strconv.Itoa(int(p))
	}
	return priorityNames[p]
}

// ParsePriority accepts a numeric level (0-7) or a journalctl keyword.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		p := Priority(n)
		return p, p.Valid()
	}
	switch s {
	case "emergency", "panic":
		return PriorityEmergency, true
	case "critical":
		return PriorityCritical, true
	case "error":
		return PriorityError, true
	case "warn":
		return PriorityWarning, true
	}
	for i, name := range priorityNames {
		if s == name {
			return Priority(i), true
		}
	}
	return DefaultPriority, false
}

// Entry is one decoded journal record. Entries are plain values: every
// consumer receives its own copy and nothing mutates them after decode.
type Entry struct {
	TimestampMicros uint64   `json:"timestamp_micros"`
	Hostname        string   `json:"hostname,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	Identifier      string   `json:"identifier,omitempty"`
	Message         string   `json:"message"`
	Priority        Priority `json:"priority"`
	Cursor          string   `json:"cursor"`
}

// HasHostname reports whether the entry carried a _HOSTNAME field
func (e *Entry) HasHostname() bool { return e.Hostname != "" }

// HasUnit reports whether the entry carried a _SYSTEMD_UNIT field
func (e *Entry) HasUnit() bool { return e.Unit != "" }

// Time converts the realtime timestamp to a time.Time in UTC
func (e *Entry) Time() time.Time {
	return MicrosToTime(e.TimestampMicros)
}

// MicrosToTime converts microseconds since the Unix epoch to time.Time (UTC)
func MicrosToTime(us uint64) time.Time {
	return time.UnixMicro(int64(us)).UTC()
}

// TimeToMicros converts t to microseconds since the Unix epoch, clamping
// times before the epoch to zero.
func TimeToMicros(t time.Time) uint64 {
	us := t.UnixMicro()
	if us < 0 {
		return 0
	}
	return uint64(us)
}
