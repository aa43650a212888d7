package cli

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/output"
	"github.com/vburojevic/journalq/internal/query"
	"github.com/vburojevic/journalq/internal/tail"
)

// Error codes emitted in error records.
const (
	CodeOpenFailed    = "OPEN_FAILED"
	CodeReadFailed    = "READ_FAILED"
	CodeInvalidRange  = "INVALID_RANGE"
	CodeInvalidFlags  = "INVALID_FLAGS"
	CodeInvalidFilter = "INVALID_FILTER"
	CodeStateLocked   = "STATE_LOCKED"
	CodeStateFailed   = "STATE_FAILED"
	CodeConfigExists  = "CONFIG_EXISTS"
	CodeConfigFailed  = "CONFIG_FAILED"
	CodeInternal      = "INTERNAL"
)

// CLIError is a structured error used for consistent NDJSON/text emission.
type CLIError struct {
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *CLIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *CLIError) Unwrap() error { return e.Err }

// codeFor maps an engine error to its error code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, journal.ErrOpenFailed):
		return CodeOpenFailed
	case errors.Is(err, journal.ErrReadFailed):
		return CodeReadFailed
	case errors.Is(err, query.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, tail.ErrStateLocked):
		return CodeStateLocked
	}
	return CodeInternal
}

func hintFor(code string) string {
	switch code {
	case CodeOpenFailed:
		return "check --directory and --backend; the native backend needs read access to the journal (systemd-journal group)"
	case CodeInvalidRange:
		return "--start must not be after --end"
	case CodeStateLocked:
		return "another tail is using this --state-file"
	case CodeConfigExists:
		return "pass --force to overwrite"
	}
	return ""
}

// outputError emits err in the selected format and returns it wrapped so
// main can exit non-zero.
func outputError(globals *Globals, code, message string, cause error) error {
	hint := hintFor(code)
	w := globals.writer()
	if globals.Format != "ndjson" {
		w = output.NewTextWriter(globals.Stderr, output.PaletteFor(globals.Stderr))
	}
	if err := w.WriteError(code, message, hint); err != nil {
		globals.Logger().Debug("failed to write error record", zap.Error(err))
	}
	return &CLIError{Code: code, Message: message, Hint: hint, Err: cause}
}

// failed reports an engine error under its mapped code.
func failed(globals *Globals, err error) error {
	return outputError(globals, codeFor(err), err.Error(), err)
}

func invalidFlags(globals *Globals, format string, args ...any) error {
	return outputError(globals, CodeInvalidFlags, fmt.Sprintf(format, args...), nil)
}
