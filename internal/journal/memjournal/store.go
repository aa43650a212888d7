// Package memjournal is an in-memory journal. It backs the export
// directory reader and serves as the cursor fake in engine tests.
package memjournal

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/journalq/internal/journal"
)

var (
	// ErrNotPositioned is returned when reading without a current entry.
	ErrNotPositioned = errors.New("cursor not positioned on an entry")
	// ErrUnknownCursor is returned by SeekCursor for foreign tokens.
	ErrUnknownCursor = errors.New("unknown cursor token")
	// ErrClosed is returned by operations on a closed cursor.
	ErrClosed = errors.New("cursor closed")
)

var storeSeq atomic.Uint64

// Record is one entry to append.
type Record struct {
	Fields map[string]string
	// Cursor overrides the generated token.
	Cursor string
	// NoCursor stores the entry without any token.
	NoCursor bool
}

// Entry builds a record with the fields discovery, query and tail read.
func Entry(usec uint64, hostname, unit, message string) Record {
	fields := map[string]string{
		journal.FieldRealtimeTimestamp: strconv.FormatUint(usec, 10),
		journal.FieldMessage:           message,
	}
	if hostname != "" {
		fields[journal.FieldHostname] = hostname
	}
	if unit != "" {
		fields[journal.FieldSystemdUnit] = unit
	}
	return Record{Fields: fields}
}

// With returns a copy of r with field set to value.
func (r Record) With(field, value string) Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	if out.Fields == nil {
		out.Fields = make(map[string]string)
	}
	out.Fields[field] = value
	return out
}

// Without returns a copy of r lacking field.
func (r Record) Without(field string) Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	delete(out.Fields, field)
	return out
}

type stored struct {
	seq      uint64
	realtime uint64
	fields   map[string]string
	token    string
}

// Store is an append-only, concurrency-safe entry log. Cursors opened on
// it observe appends made after they were opened.
type Store struct {
	id    string
	clock clock.Clock

	mu      sync.Mutex
	entries []stored
	byToken map[string]int
	changed chan struct{}
	open    int

	// fault injection
	nextErrs  []error
	fieldErrs []error
	openErr   error
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for Wait timeouts.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		id:      strconv.FormatUint(storeSeq.Add(1), 16),
		clock:   clock.New(),
		byToken: make(map[string]int),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds records to the end of the log and wakes waiting cursors.
func (s *Store) Append(records ...Record) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		seq := uint64(len(s.entries)) + 1
		rt, _ := strconv.ParseUint(r.Fields[journal.FieldRealtimeTimestamp], 10, 64)
		token := r.Cursor
		if token == "" && !r.NoCursor {
			token = fmt.Sprintf("s=%s;i=%x;t=%x", s.id, seq, rt)
		}
		if token != "" {
			s.byToken[token] = len(s.entries)
		}
		s.entries = append(s.entries, stored{
			seq:      seq,
			realtime: rt,
			fields:   maps.Clone(r.Fields),
			token:    token,
		})
	}
	close(s.changed)
	s.changed = make(chan struct{})
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Token returns the cursor token of the i-th entry (0-based).
func (s *Store) Token(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.entries) {
		return ""
	}
	return s.entries[i].token
}

// OpenCursors reports how many cursors are open and not yet closed.
func (s *Store) OpenCursors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// FailNext makes the next call to Next on any cursor fail with err.
// Calls queue up; a nil err lets that step through, which schedules
// later faults.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErrs = append(s.nextErrs, err)
}

// FailField makes the next Field read on any cursor fail with err.
func (s *Store) FailField(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldErrs = append(s.fieldErrs, err)
}

// FailOpen makes Open fail with err until cleared with nil.
func (s *Store) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// Open returns a new cursor positioned at the head. Paths are ignored; use
// Dirs to map paths to stores.
func (s *Store) Open(...string) (journal.Cursor, error) {
	return s.OpenCursor()
}

// OpenCursor is Open returning the concrete type.
func (s *Store) OpenCursor() (*Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.open++
	return &Cursor{store: s, cur: -1, seen: len(s.entries)}, nil
}

// Dirs maps journal paths to stores, acting as a journal.Opener.
type Dirs map[string]*Store

// Open opens the store registered for the single requested path.
func (d Dirs) Open(paths ...string) (journal.Cursor, error) {
	if len(paths) != 1 {
		return nil, fmt.Errorf("memjournal: expected exactly one path, got %d", len(paths))
	}
	s, ok := d[paths[0]]
	if !ok {
		return nil, fmt.Errorf("memjournal: no journal at %q", paths[0])
	}
	return s.Open()
}

// seqFromToken extracts the sequence number from a token this store
// generated.
func (s *Store) seqFromToken(token string) (uint64, bool) {
	var id string
	var seq uint64
	for _, part := range strings.Split(token, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return 0, false
		}
		switch k {
		case "s":
			id = v
		case "i":
			n, err := strconv.ParseUint(v, 16, 64)
			if err != nil {
				return 0, false
			}
			seq = n
		}
	}
	return seq, id == s.id && seq > 0
}
