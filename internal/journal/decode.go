package journal

import (
	"strconv"
	"strings"

	"github.com/vburojevic/journalq/internal/domain"
)

// Decode builds an Entry from the current cursor position. Missing
// mandatory fields yield a *DecodeError; I/O failures from r are
// returned as-is so callers can tell the two apart. Decode never moves
// the cursor.
func Decode(r Reader) (domain.Entry, error) {
	var e domain.Entry

	token, err := r.Token()
	if err != nil {
		return e, err
	}

	raw, ok, err := r.Field(FieldRealtimeTimestamp)
	if err != nil {
		return e, err
	}
	if !ok {
		return e, &DecodeError{Field: FieldRealtimeTimestamp, Err: ErrMissingTimestamp, Cursor: token}
	}
	ts, perr := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if perr != nil {
		return e, &DecodeError{Field: FieldRealtimeTimestamp, Err: ErrMissingTimestamp, Cursor: token}
	}
	e.TimestampMicros = ts

	msg, ok, err := r.Field(FieldMessage)
	if err != nil {
		return e, err
	}
	if !ok {
		return e, &DecodeError{Field: FieldMessage, Err: ErrMissingMessage, Cursor: token}
	}
	e.Message = msg

	if token == "" {
		return e, &DecodeError{Field: FieldCursor, Err: ErrMissingCursor}
	}
	e.Cursor = token

	if e.Hostname, _, err = r.Field(FieldHostname); err != nil {
		return e, err
	}
	if e.Unit, _, err = r.Field(FieldSystemdUnit); err != nil {
		return e, err
	}
	if e.Identifier, _, err = r.Field(FieldSyslogIdentifier); err != nil {
		return e, err
	}

	e.Priority = domain.DefaultPriority
	if raw, ok, err := r.Field(FieldPriority); err != nil {
		return e, err
	} else if ok {
		if n, perr := strconv.Atoi(strings.TrimSpace(raw)); perr == nil && domain.Priority(n).Valid() {
			e.Priority = domain.Priority(n)
		}
	}

	return e, nil
}

// HostUnit reads only the hostname and unit of the current entry, which is
// all discovery needs.
func HostUnit(r Reader) (hostname, unit string, ok bool, err error) {
	hostname, hok, err := r.Field(FieldHostname)
	if err != nil {
		return "", "", false, err
	}
	unit, uok, err := r.Field(FieldSystemdUnit)
	if err != nil {
		return "", "", false, err
	}
	return hostname, unit, hok && uok && hostname != "" && unit != "", nil
}
