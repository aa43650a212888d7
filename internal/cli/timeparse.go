package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTimeOrDuration parses s as an absolute time or as a duration back
// from now.
// Examples: "2024-01-15T10:30:00Z", "@1705314600" (unix seconds), "5m" (5 minutes ago)
func parseTimeOrDuration(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if s == "now" {
		return now, nil
	}

	// Try RFC3339 first
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local); err == nil {
		return t, nil
	}

	if secs, ok := strings.CutPrefix(s, "@"); ok {
		n, err := strconv.ParseInt(secs, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid unix time %q", s)
		}
		return time.Unix(n, 0), nil
	}

	// Try duration (relative to now)
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("duration must not be negative: %s", s)
		}
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339, @unix, or a duration like 5m)", s)
}

// parseSeconds parses a duration like "30s" into whole seconds.
func parseSeconds(s string) (uint64, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", s)
	}
	return uint64(d / time.Second), nil
}
