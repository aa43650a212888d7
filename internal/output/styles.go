package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/vburojevic/journalq/internal/domain"
)

// Palette holds the lipgloss styles for text output
type Palette struct {
	// Priority styles
	Emergency lipgloss.Style
	Critical  lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Notice    lipgloss.Style
	Info      lipgloss.Style
	Debug     lipgloss.Style

	// Component styles
	Timestamp lipgloss.Style
	Host      lipgloss.Style
	Unit      lipgloss.Style
	Message   lipgloss.Style

	// Summary styles
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Danger  lipgloss.Style
}

// Colored is the palette used on terminals.
var Colored = Palette{
	Emergency: lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true).Underline(true), // Magenta bold underline
	Critical:  lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
	Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red bold
	Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),            // Orange
	Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")), // Cyan
	Debug:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),

	Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Host:      lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	Unit:      lipgloss.NewStyle().Foreground(lipgloss.Color("142")),
	Message:   lipgloss.NewStyle(),

	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

// Plain renders every element unstyled.
var Plain = Palette{
	Emergency: lipgloss.NewStyle(), Critical: lipgloss.NewStyle(), Error: lipgloss.NewStyle(),
	Warning: lipgloss.NewStyle(), Notice: lipgloss.NewStyle(), Info: lipgloss.NewStyle(),
	Debug: lipgloss.NewStyle(), Timestamp: lipgloss.NewStyle(), Host: lipgloss.NewStyle(),
	Unit: lipgloss.NewStyle(), Message: lipgloss.NewStyle(), Header: lipgloss.NewStyle(),
	Label: lipgloss.NewStyle(), Value: lipgloss.NewStyle(), Success: lipgloss.NewStyle(),
	Danger: lipgloss.NewStyle(),
}

// ColorEnabled reports whether w is a terminal that should get colors.
// NO_COLOR disables colors everywhere.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PaletteFor picks Colored or Plain for w.
func PaletteFor(w io.Writer) Palette {
	if ColorEnabled(w) {
		return Colored
	}
	return Plain
}

// PriorityStyle returns the style for a priority
func (p Palette) PriorityStyle(prio domain.Priority) lipgloss.Style {
	switch {
	case prio <= domain.PriorityAlert:
		return p.Emergency
	case prio == domain.PriorityCritical:
		return p.Critical
	case prio == domain.PriorityError:
		return p.Error
	case prio == domain.PriorityWarning:
		return p.Warning
	case prio == domain.PriorityNotice:
		return p.Notice
	case prio == domain.PriorityInfo:
		return p.Info
	default:
		return p.Debug
	}
}

// PriorityIndicator returns a fixed-width styled priority tag
func (p Palette) PriorityIndicator(prio domain.Priority) string {
	tags := [...]string{"EMR", "ALR", "CRT", "ERR", "WRN", "NTC", "INF", "DBG"}
	tag := "???"
	if prio.Valid() {
		tag = tags[prio]
	}
	return p.PriorityStyle(prio).Render(tag)
}

// StatusText returns styled status text for a summary
func (p Palette) StatusText(s *domain.LogSummary) string {
	if s.HasCritical {
		return p.Danger.Render("CRITICAL ENTRIES")
	}
	if s.HasErrors {
		return p.Warning.Render("ERRORS DETECTED")
	}
	return p.Success.Render("OK")
}
