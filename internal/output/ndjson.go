package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/vburojevic/journalq/internal/domain"
)

// Writer is implemented by every output format.
type Writer interface {
	Write(entry *domain.Entry, tailID string) error
	WriteHosts(hosts domain.Hosts) error
	WriteNames(kind string, names []string) error
	WriteAnalysis(a *AnalysisOutput) error
	WriteStats(s *StatsOutput) error
	WriteInfo(info *InfoOutput) error
	WriteWarning(message string) error
	WriteError(code, message string, hint ...string) error
	WriteCutoff(reason, tailID string, total int) error
}

// New returns the writer for format, "text" or "ndjson".
func New(format string, w io.Writer) Writer {
	if format == "text" {
		return NewTextWriter(w, PaletteFor(w))
	}
	return NewNDJSONWriter(w)
}

// NDJSONWriter writes records as NDJSON
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// EntryOutput is the NDJSON form of a journal entry
type EntryOutput struct {
	Type            string `json:"type"` // Always "entry"
	SchemaVersion   int    `json:"schemaVersion"`
	Timestamp       string `json:"timestamp"`
	TimestampMicros uint64 `json:"timestamp_micros"`
	Hostname        string `json:"hostname,omitempty"`
	Unit            string `json:"unit,omitempty"`
	Identifier      string `json:"identifier,omitempty"`
	Priority        int    `json:"priority"`
	PriorityName    string `json:"priority_name"`
	Message         string `json:"message"`
	Cursor          string `json:"cursor"`
	TailID          string `json:"tail_id,omitempty"`
}

// HostsOutput lists discovered hosts and their units
type HostsOutput struct {
	Type          string        `json:"type"` // Always "discovery"
	SchemaVersion int           `json:"schemaVersion"`
	Count         int           `json:"count"`
	Hosts         []domain.Host `json:"hosts"`
}

// NamesOutput is a flat list of hostnames or unit names
type NamesOutput struct {
	Type          string   `json:"type"` // "hostnames" or "units"
	SchemaVersion int      `json:"schemaVersion"`
	Count         int      `json:"count"`
	Names         []string `json:"names"`
}

// StatsOutput reports counters at the end of a query or tail
type StatsOutput struct {
	Type          string `json:"type"` // Always "stats"
	SchemaVersion int    `json:"schemaVersion"`
	Command       string `json:"command"`
	TailID        string `json:"tail_id,omitempty"`
	Unit          string `json:"unit,omitempty"`
	Scanned       int    `json:"scanned,omitempty"`
	Matched       int    `json:"matched,omitempty"`
	Emitted       int    `json:"emitted,omitempty"`
	Skipped       int    `json:"skipped,omitempty"`
	Malformed     int    `json:"malformed,omitempty"`
	ReadErrors    int    `json:"read_errors,omitempty"`
	Recoveries    int    `json:"recoveries,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
}

// InfoOutput represents an informational message
type InfoOutput struct {
	Type          string `json:"type"` // Always "info"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
	Hostname      string `json:"hostname,omitempty"`
	Unit          string `json:"unit,omitempty"`
	Since         string `json:"since,omitempty"`
	Mode          string `json:"mode,omitempty"`
	TailID        string `json:"tail_id,omitempty"`
}

// WarningOutput represents a warning message
type WarningOutput struct {
	Type          string `json:"type"` // Always "warning"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// MetadataOutput describes build metadata
type MetadataOutput struct {
	Type          string   `json:"type"` // Always "metadata"
	SchemaVersion int      `json:"schemaVersion"`
	Version       string   `json:"version"`
	Commit        string   `json:"commit"`
	BuildDate     string   `json:"build_date,omitempty"`
	Backends      []string `json:"backends,omitempty"`
}

// CutoffOutput describes an intentional stream cutoff
type CutoffOutput struct {
	Type          string `json:"type"` // Always "cutoff_reached"
	SchemaVersion int    `json:"schemaVersion"`
	Reason        string `json:"reason"`
	TailID        string `json:"tail_id,omitempty"`
	TotalEntries  int    `json:"total_entries,omitempty"`
}

// NewEntryOutput converts an entry to its NDJSON form
func NewEntryOutput(entry *domain.Entry, tailID string) *EntryOutput {
	return &EntryOutput{
		Type:            "entry",
		SchemaVersion:   SchemaVersion,
		Timestamp:       entry.Time().Format(time.RFC3339Nano),
		TimestampMicros: entry.TimestampMicros,
		Hostname:        entry.Hostname,
		Unit:            entry.Unit,
		Identifier:      entry.Identifier,
		Priority:        int(entry.Priority),
		PriorityName:    entry.Priority.String(),
		Message:         entry.Message,
		Cursor:          entry.Cursor,
		TailID:          tailID,
	}
}

// Write outputs a single entry as NDJSON
func (w *NDJSONWriter) Write(entry *domain.Entry, tailID string) error {
	return w.encoder.Encode(NewEntryOutput(entry, tailID))
}

// WriteHosts outputs the discovered host/unit pairs
func (w *NDJSONWriter) WriteHosts(hosts domain.Hosts) error {
	all := hosts.All()
	return w.encoder.Encode(&HostsOutput{
		Type:          "discovery",
		SchemaVersion: SchemaVersion,
		Count:         len(all),
		Hosts:         all,
	})
}

// WriteNames outputs a list of names under the given record type
func (w *NDJSONWriter) WriteNames(kind string, names []string) error {
	if names == nil {
		names = []string{}
	}
	return w.encoder.Encode(&NamesOutput{
		Type:          kind,
		SchemaVersion: SchemaVersion,
		Count:         len(names),
		Names:         names,
	})
}

// WriteAnalysis outputs an analysis record
func (w *NDJSONWriter) WriteAnalysis(a *AnalysisOutput) error {
	return w.encoder.Encode(a)
}

// WriteStats outputs a stats record
func (w *NDJSONWriter) WriteStats(s *StatsOutput) error {
	s.Type = "stats"
	s.SchemaVersion = SchemaVersion
	return w.encoder.Encode(s)
}

// WriteInfo outputs an informational message
func (w *NDJSONWriter) WriteInfo(info *InfoOutput) error {
	info.Type = "info"
	info.SchemaVersion = SchemaVersion
	return w.encoder.Encode(info)
}

// WriteWarning outputs a warning message
func (w *NDJSONWriter) WriteWarning(message string) error {
	return w.encoder.Encode(&WarningOutput{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		Message:       message,
	})
}

// WriteError outputs an error
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	err := domain.NewErrorOutput(code, message)
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	err.SchemaVersion = SchemaVersion
	return w.encoder.Encode(err)
}

// WriteMetadata outputs build metadata
func (w *NDJSONWriter) WriteMetadata(version, commit, buildDate string, backends []string) error {
	return w.encoder.Encode(&MetadataOutput{
		Type:          "metadata",
		SchemaVersion: SchemaVersion,
		Version:       version,
		Commit:        commit,
		BuildDate:     buildDate,
		Backends:      backends,
	})
}

// WriteCutoff outputs a cutoff marker
func (w *NDJSONWriter) WriteCutoff(reason, tailID string, total int) error {
	return w.encoder.Encode(&CutoffOutput{
		Type:          "cutoff_reached",
		SchemaVersion: SchemaVersion,
		Reason:        reason,
		TailID:        tailID,
		TotalEntries:  total,
	})
}

// WriteRaw outputs raw JSON data
func (w *NDJSONWriter) WriteRaw(v any) error {
	return w.encoder.Encode(v)
}
