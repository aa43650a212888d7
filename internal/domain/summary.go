package domain

import "time"

// LogSummary aggregates a batch of entries by severity
type LogSummary struct {
	Type          string `json:"type"`          // Always "summary"
	SchemaVersion int    `json:"schemaVersion"` // Schema version for compatibility

	// Time window
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`

	// Counts
	TotalCount    int         `json:"totalCount"`
	PriorityCount map[int]int `json:"priorityCount"`
	ErrorCount    int         `json:"errorCount"`    // priority err (3)
	CriticalCount int         `json:"criticalCount"` // priority emerg..crit (0-2)
	WarningCount  int         `json:"warningCount"`

	// Per-unit totals
	Units map[string]int `json:"units,omitempty"`

	HasErrors   bool `json:"hasErrors"`
	HasCritical bool `json:"hasCritical"`

	// Pattern detection
	TopErrors []string `json:"topErrors,omitempty"`

	// errors+critical per minute
	ErrorRate float64 `json:"errorRate"`
}

// NewLogSummary creates a new empty summary
func NewLogSummary() *LogSummary {
	return &LogSummary{
		Type:          "summary",
		PriorityCount: make(map[int]int),
		Units:         make(map[string]int),
	}
}

// ErrorOutput represents a structured error for NDJSON output
type ErrorOutput struct {
	Type          string `json:"type"`          // Always "error"
	SchemaVersion int    `json:"schemaVersion"` // Schema version for compatibility
	Code          string `json:"code"`          // Machine-readable error code
	Message       string `json:"message"`       // Human-readable message
	Hint          string `json:"hint,omitempty"`
}

// NewErrorOutput creates a new error output
// Note: SchemaVersion should be set by the caller (output package)
func NewErrorOutput(code, message string) *ErrorOutput {
	return &ErrorOutput{
		Type:    "error",
		Code:    code,
		Message: message,
	}
}
