package output

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vburojevic/journalq/internal/domain"
)

var (
	uuidPattern   = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexPattern    = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	numberPattern = regexp.MustCompile(`\d+`)
)

const (
	maxTopMessages  = 5
	maxPatterns     = 5
	maxSamples      = 3
	maxNormalizedLn = 100
)

// Analyzer accumulates entries and produces a summary of them.
// It is not safe for concurrent use.
type Analyzer struct {
	summary *domain.LogSummary
	first   uint64
	last    uint64
	seen    bool

	// normalized message -> raw samples, err priority and worse
	groups map[string][]string
	order  []string
}

// NewAnalyzer creates a new log analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		summary: domain.NewLogSummary(),
		groups:  make(map[string][]string),
	}
}

// Add records a single entry.
func (a *Analyzer) Add(e *domain.Entry) {
	s := a.summary
	if !a.seen || e.TimestampMicros < a.first {
		a.first = e.TimestampMicros
	}
	if !a.seen || e.TimestampMicros > a.last {
		a.last = e.TimestampMicros
	}
	a.seen = true

	s.TotalCount++
	s.PriorityCount[int(e.Priority)]++
	if e.Unit != "" {
		s.Units[e.Unit]++
	}

	switch {
	case e.Priority <= domain.PriorityCritical:
		s.CriticalCount++
	case e.Priority == domain.PriorityError:
		s.ErrorCount++
	case e.Priority == domain.PriorityWarning:
		s.WarningCount++
	}

	if e.Priority <= domain.PriorityError {
		key := normalizeMessage(e.Message)
		if _, ok := a.groups[key]; !ok {
			a.order = append(a.order, key)
		}
		a.groups[key] = append(a.groups[key], e.Message)
	}
}

// Summary returns the summary of everything added so far.
func (a *Analyzer) Summary() *domain.LogSummary {
	s := *a.summary
	if !a.seen {
		return &s
	}

	s.WindowStart = domain.MicrosToTime(a.first)
	s.WindowEnd = domain.MicrosToTime(a.last)
	s.HasErrors = s.ErrorCount > 0 || s.CriticalCount > 0
	s.HasCritical = s.CriticalCount > 0

	// errors per minute
	if d := s.WindowEnd.Sub(s.WindowStart); d >= time.Second {
		s.ErrorRate = float64(s.ErrorCount+s.CriticalCount) / d.Minutes()
	}

	s.TopErrors = a.topMessages(maxTopMessages)
	return &s
}

// Summarize generates a summary from a batch of entries
func (a *Analyzer) Summarize(entries []domain.Entry) *domain.LogSummary {
	for i := range entries {
		a.Add(&entries[i])
	}
	return a.Summary()
}

// normalizeMessage removes variable parts to group similar messages
func normalizeMessage(msg string) string {
	msg = uuidPattern.ReplaceAllString(msg, "<uuid>")
	msg = hexPattern.ReplaceAllString(msg, "<addr>")
	msg = numberPattern.ReplaceAllString(msg, "<n>")
	msg = strings.TrimSpace(msg)

	if len(msg) > maxNormalizedLn {
		msg = msg[:maxNormalizedLn] + "..."
	}
	return msg
}

// topMessages returns the top N normalized messages by frequency.
// Ties keep first-seen order.
func (a *Analyzer) topMessages(limit int) []string {
	keys := append([]string(nil), a.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return len(a.groups[keys[i]]) > len(a.groups[keys[j]])
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// Patterns finds recurring error patterns
func (a *Analyzer) Patterns() []PatternMatch {
	var patterns []PatternMatch
	for _, key := range a.order {
		messages := a.groups[key]
		if len(messages) < 2 {
			continue
		}
		samples := messages
		if len(samples) > maxSamples {
			samples = samples[:maxSamples]
		}
		patterns = append(patterns, PatternMatch{
			Pattern: key,
			Count:   len(messages),
			Samples: append([]string(nil), samples...),
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	if len(patterns) > maxPatterns {
		patterns = patterns[:maxPatterns]
	}
	return patterns
}

// PatternMatch represents a detected error pattern
type PatternMatch struct {
	Pattern string   `json:"pattern"`
	Count   int      `json:"count"`
	Samples []string `json:"samples"`
}

// AnalysisOutput wraps a summary and its patterns for NDJSON output
type AnalysisOutput struct {
	Type          string             `json:"type"` // Always "analysis"
	SchemaVersion int                `json:"schemaVersion"`
	Timestamp     time.Time          `json:"timestamp"`
	Summary       *domain.LogSummary `json:"summary"`
	Patterns      []PatternMatch     `json:"patterns,omitempty"`
}

// NewAnalysisOutput creates an analysis output wrapper
func NewAnalysisOutput(summary *domain.LogSummary, patterns []PatternMatch, now time.Time) *AnalysisOutput {
	summary.SchemaVersion = SchemaVersion
	return &AnalysisOutput{
		Type:          "analysis",
		SchemaVersion: SchemaVersion,
		Timestamp:     now.UTC(),
		Summary:       summary,
		Patterns:      patterns,
	}
}
