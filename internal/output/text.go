package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vburojevic/journalq/internal/domain"
)

// TextWriter writes records as human-readable text
type TextWriter struct {
	w     io.Writer
	style Palette
}

// NewTextWriter creates a new text writer
func NewTextWriter(w io.Writer, style Palette) *TextWriter {
	return &TextWriter{w: w, style: style}
}

// Write outputs a single entry as styled text
func (w *TextWriter) Write(entry *domain.Entry, _ string) error {
	s := w.style
	var b strings.Builder
	b.WriteString(s.Timestamp.Render(entry.Time().Format("2006-01-02T15:04:05.000000Z")))
	b.WriteByte(' ')
	b.WriteString(s.PriorityIndicator(entry.Priority))
	if entry.Hostname != "" {
		b.WriteByte(' ')
		b.WriteString(s.Host.Render(entry.Hostname))
	}

	source := entry.Unit
	if entry.Identifier != "" && entry.Identifier != source {
		if source == "" {
			source = entry.Identifier
		} else {
			source += "[" + entry.Identifier + "]"
		}
	}
	if source != "" {
		b.WriteByte(' ')
		b.WriteString(s.Unit.Render(source))
	}
	b.WriteString(": ")
	b.WriteString(s.PriorityStyle(entry.Priority).Render(entry.Message))
	b.WriteByte('\n')

	_, err := io.WriteString(w.w, b.String())
	return err
}

// WriteHosts outputs a table of hosts and their units
func (w *TextWriter) WriteHosts(hosts domain.Hosts) error {
	if hosts.Len() == 0 {
		_, err := io.WriteString(w.w, w.style.Label.Render("no hosts found")+"\n")
		return err
	}
	return renderHostsTable(w.w, hosts)
}

// WriteNames outputs one name per line
func (w *TextWriter) WriteNames(_ string, names []string) error {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w.w, b.String())
	return err
}

// WriteAnalysis outputs a styled summary and its patterns
func (w *TextWriter) WriteAnalysis(a *AnalysisOutput) error {
	s := w.style
	sum := a.Summary

	line := "\n" + s.Header.Render("Summary") + " " + s.StatusText(sum) + "\n"
	line += s.Label.Render("Total: ") + s.Value.Render(strconv.Itoa(sum.TotalCount)) + " | "
	line += countField(s, "Critical: ", sum.CriticalCount, s.Danger) + " | "
	line += countField(s, "Errors: ", sum.ErrorCount, s.Error) + " | "
	line += countField(s, "Warnings: ", sum.WarningCount, s.Warning) + "\n"
	if sum.ErrorRate > 0 {
		line += s.Label.Render("Error rate: ") + s.Value.Render(strconv.FormatFloat(sum.ErrorRate, 'f', 2, 64)+"/min") + "\n"
	}
	for _, msg := range sum.TopErrors {
		line += "  " + s.Error.Render("-") + " " + msg + "\n"
	}
	for _, p := range a.Patterns {
		line += s.Label.Render("Pattern x"+strconv.Itoa(p.Count)+": ") + p.Pattern + "\n"
	}

	_, err := io.WriteString(w.w, line)
	return err
}

func countField(s Palette, label string, n int, hot lipgloss.Style) string {
	if n > 0 {
		return hot.Render(label + strconv.Itoa(n))
	}
	return s.Label.Render(label) + s.Value.Render(strconv.Itoa(n))
}

// WriteStats outputs a one-line stats record
func (w *TextWriter) WriteStats(st *StatsOutput) error {
	s := w.style
	parts := []string{s.Header.Render("[" + strings.ToUpper(st.Command) + "]")}
	if st.Unit != "" {
		parts = append(parts, s.Unit.Render(st.Unit))
	}
	for _, kv := range []struct {
		k string
		v int
	}{
		{"scanned", st.Scanned}, {"matched", st.Matched}, {"emitted", st.Emitted},
		{"skipped", st.Skipped}, {"malformed", st.Malformed},
		{"read_errors", st.ReadErrors}, {"recoveries", st.Recoveries},
	} {
		if kv.v > 0 {
			parts = append(parts, s.Label.Render(kv.k+"=")+s.Value.Render(strconv.Itoa(kv.v)))
		}
	}
	parts = append(parts, s.Label.Render("duration=")+s.Value.Render(strconv.FormatInt(st.DurationMS, 10)+"ms"))
	_, err := io.WriteString(w.w, strings.Join(parts, " ")+"\n")
	return err
}

// WriteInfo outputs an informational line
func (w *TextWriter) WriteInfo(info *InfoOutput) error {
	line := w.style.Info.Render("[INFO]") + " " + info.Message
	if info.Hostname != "" {
		line += " " + w.style.Label.Render("host=") + info.Hostname
	}
	if info.Unit != "" {
		line += " " + w.style.Label.Render("unit=") + info.Unit
	}
	if info.Since != "" {
		line += " " + w.style.Label.Render("since=") + info.Since
	}
	_, err := io.WriteString(w.w, line+"\n")
	return err
}

// WriteWarning outputs a styled warning
func (w *TextWriter) WriteWarning(message string) error {
	_, err := io.WriteString(w.w, w.style.Warning.Render("Warning")+": "+message+"\n")
	return err
}

// WriteError outputs a styled error
func (w *TextWriter) WriteError(code, message string, hint ...string) error {
	line := w.style.Danger.Render("Error") + " " + w.style.Warning.Render("["+code+"]") + ": " + message + "\n"
	if len(hint) > 0 && hint[0] != "" {
		line += w.style.Label.Render("hint: ") + hint[0] + "\n"
	}
	_, err := io.WriteString(w.w, line)
	return err
}

// WriteCutoff outputs a cutoff line
func (w *TextWriter) WriteCutoff(reason, _ string, total int) error {
	_, err := fmt.Fprintf(w.w, "%s %s (%d entries)\n", w.style.Label.Render("[CUTOFF]"), reason, total)
	return err
}
