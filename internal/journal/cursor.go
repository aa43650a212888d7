// Package journal defines the sequential entry cursor the engines read
// through, and decodes the fields at a cursor position into domain entries.
package journal

import (
	"io"
	"time"
)

// Well-known journald field names
const (
	FieldRealtimeTimestamp = "__REALTIME_TIMESTAMP"
	FieldCursor            = "__CURSOR"
	FieldHostname          = "_HOSTNAME"
	FieldSystemdUnit       = "_SYSTEMD_UNIT"
	FieldMessage           = "MESSAGE"
	FieldPriority          = "PRIORITY"
	FieldSyslogIdentifier  = "SYSLOG_IDENTIFIER"
)

// WaitResult reports what Wait observed
type WaitResult int

const (
	// WaitNop means the timeout elapsed with no change
	WaitNop WaitResult = iota
	// WaitAppend means entries were appended
	WaitAppend
	// WaitInvalidate means files were added or removed (rotation, vacuum)
	WaitInvalidate
)

func (r WaitResult) String() string {
	switch r {
	case WaitAppend:
		return "append"
	case WaitInvalidate:
		return "invalidate"
	default:
		return "nop"
	}
}

// Reader is the read-only view of the entry under the cursor.
type Reader interface {
	// Field returns the value of name for the current entry. ok is false
	// when the entry does not carry the field; err is reserved for I/O
	// failures of the underlying reader.
	Field(name string) (value string, ok bool, err error)

	// Token returns the cursor token of the current entry, or "" when the
	// entry has none.
	Token() (string, error)
}

// Cursor is an exclusively owned, stateful reader over one or more
// journal directories. Implementations are not safe for concurrent use.
type Cursor interface {
	Reader
	io.Closer

	// SeekHead positions before the first entry.
	SeekHead() error
	// SeekTail positions after the last existing entry; Next then only
	// returns entries appended later.
	SeekTail() error
	// SeekRealtime positions before the first entry whose realtime
	// timestamp is >= usec (or at end-of-log when none is).
	SeekRealtime(usec uint64) error
	// SeekCursor positions immediately after the entry identified by token.
	SeekCursor(token string) error

	// Next steps forward. It returns false at end-of-log.
	Next() (bool, error)
	// Previous steps backward. It returns false at the head.
	Previous() (bool, error)

	// Wait blocks until the journal changes or timeout elapses.
	Wait(timeout time.Duration) (WaitResult, error)
}

// Opener opens a cursor rooted at one or more journal directories or files.
type Opener func(paths ...string) (Cursor, error)
