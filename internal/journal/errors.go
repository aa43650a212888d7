package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrOpenFailed marks failures to open a path as a journal.
	ErrOpenFailed = errors.New("journal open failed")
	// ErrReadFailed marks I/O failures of the cursor mid-iteration.
	ErrReadFailed = errors.New("journal read failed")

	ErrMissingTimestamp = errors.New("missing realtime timestamp")
	ErrMissingMessage   = errors.New("missing message")
	ErrMissingCursor    = errors.New("missing cursor")
)

// DecodeError reports a malformed entry. It is per-entry and callers skip
// the entry rather than abort.
type DecodeError struct {
	Field  string
	Err    error
	Cursor string // may be empty
}

func (e *DecodeError) Error() string {
	if e.Cursor != "" {
		return fmt.Sprintf("decode %s at %s: %v", e.Field, e.Cursor, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is a per-entry decode failure
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// OpenError wraps an open failure with ErrOpenFailed and the path.
func OpenError(paths []string, err error) error {
	return fmt.Errorf("%w: %v: %w", ErrOpenFailed, paths, err)
}

// ReadError wraps a cursor failure with ErrReadFailed.
func ReadError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrReadFailed, op, err)
}
