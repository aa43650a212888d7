package tail

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/filter"
	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/backend"
	"github.com/vburojevic/journalq/internal/logging"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("tail closed")

// State is the lifecycle phase of a Tail.
type State int

const (
	StateInitializing State = iota
	StatePolling
	StateWaiting
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StatePolling:
		return "polling"
	case StateWaiting:
		return "waiting"
	case StateTerminal:
		return "terminal"
	}
	return "unknown"
}

// Stats counts what a tail has seen so far.
type Stats struct {
	Emitted    int
	Skipped    int // filtered out
	Malformed  int // decode failures
	ReadErrors int
	Polls      int // waits at end of log
	Recoveries int // successful re-seeks after a read error
}

// Option configures New.
type Option func(*Tail)

// WithOpener sets how the journal is opened. The default picks a backend
// automatically.
func WithOpener(open journal.Opener) Option {
	return func(t *Tail) { t.open = open }
}

// WithClock sets the clock for "now" and recovery delays.
func WithClock(c clock.Clock) Option {
	return func(t *Tail) { t.clock = c }
}

// WithLogger sets the logger for skips and recoveries.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tail) { t.logger = logging.OrNop(l) }
}

// start is where reading resumes when nothing has been emitted yet.
type start struct {
	token string // FromNow anchor: last entry at open time
	usec  uint64 // OffsetSecondsAgo
	head  bool   // FromNow on an empty journal
}

// Tail is a live pull iterator over one journal. It owns one cursor and
// must be driven by a single goroutine.
type Tail struct {
	cfg    Config
	open   journal.Opener
	clock  clock.Clock
	logger *zap.Logger
	match  filter.Chain

	cursor journal.Cursor
	start  start
	last   string // cursor token of the last emitted entry

	state      State
	resync     bool
	recoverLag bool // last recovery failed; pause before the next one
	stats      Stats
}

// New opens the journal and positions the tail per cfg.
func New(cfg Config, opts ...Option) (*Tail, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	t := &Tail{
		cfg:    cfg,
		clock:  clock.New(),
		logger: zap.NewNop(),
		match:  cfg.matcher(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.open == nil {
		t.open = backend.Default()
	}

	c, err := t.open(cfg.paths()...)
	if err != nil {
		return nil, journal.OpenError(cfg.paths(), err)
	}
	t.cursor = c

	if err := t.position(); err != nil {
		c.Close()
		return nil, journal.ReadError("initial seek", err)
	}
	t.state = StatePolling
	t.logger.Debug("tail started",
		zap.String("hostname", cfg.Hostname),
		zap.String("unit", cfg.Unit),
		zap.Stringer("from", cfg.InitialPosition),
		zap.Bool("resumed", t.last != ""))
	return t, nil
}

// position performs the initial seek and remembers the start anchor.
func (t *Tail) position() error {
	if t.cfg.ResumeCursor != "" {
		t.last = t.cfg.ResumeCursor
		return t.cursor.SeekCursor(t.last)
	}
	p := t.cfg.InitialPosition
	if !p.fromNow {
		now := t.clock.Now().Add(-time.Duration(p.seconds) * time.Second)
		t.start = start{usec: domain.TimeToMicros(now)}
		return t.cursor.SeekRealtime(t.start.usec)
	}

	if err := t.cursor.SeekTail(); err != nil {
		return err
	}
	ok, err := t.cursor.Previous()
	if err != nil {
		return err
	}
	if !ok {
		t.start = start{head: true}
		return t.cursor.SeekHead()
	}
	tok, err := t.cursor.Token()
	if err != nil {
		return err
	}
	t.start = start{token: tok}
	return nil
}

// seek returns to the last emitted entry, or to the start anchor.
func (t *Tail) seek() error {
	switch {
	case t.last != "":
		return t.cursor.SeekCursor(t.last)
	case t.start.token != "":
		return t.cursor.SeekCursor(t.start.token)
	case t.start.head:
		return t.cursor.SeekHead()
	default:
		return t.cursor.SeekRealtime(t.start.usec)
	}
}

// recover re-seeks after a read error, reopening the journal when the
// existing cursor refuses.
func (t *Tail) recover() error {
	if err := t.seek(); err == nil {
		return nil
	}
	t.cursor.Close()
	c, err := t.open(t.cfg.paths()...)
	if err != nil {
		// t.cursor stays the closed handle; closing it again is a no-op
		return journal.OpenError(t.cfg.paths(), err)
	}
	t.cursor = c
	return t.seek()
}

// Next blocks until the next matching entry is available. A cursor
// failure is returned once, wrapped in journal.ErrReadFailed; the
// following call recovers from the last emitted entry.
func (t *Tail) Next(ctx context.Context) (domain.Entry, error) {
	for {
		if t.state == StateTerminal {
			return domain.Entry{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return domain.Entry{}, err
		}

		if t.resync {
			if t.recoverLag {
				if err := t.sleep(ctx, t.cfg.PollInterval); err != nil {
					return domain.Entry{}, err
				}
			}
			if err := t.recover(); err != nil {
				t.recoverLag = true
				t.stats.ReadErrors++
				t.logger.Warn("tail recovery failed", zap.Error(err))
				return domain.Entry{}, journal.ReadError("recover", err)
			}
			t.resync, t.recoverLag = false, false
			t.stats.Recoveries++
			t.logger.Debug("tail recovered", zap.String("cursor", t.last))
		}

		t.state = StatePolling
		ok, err := t.cursor.Next()
		if err != nil {
			return domain.Entry{}, t.fail("next", err)
		}
		if !ok {
			t.state = StateWaiting
			t.stats.Polls++
			if _, err := t.cursor.Wait(t.cfg.PollInterval); err != nil {
				return domain.Entry{}, t.fail("wait", err)
			}
			continue
		}

		entry, err := journal.Decode(t.cursor)
		if err != nil {
			if journal.IsDecodeError(err) {
				t.stats.Malformed++
				t.logger.Debug("skipping malformed entry", zap.Error(err))
				continue
			}
			return domain.Entry{}, t.fail("read entry", err)
		}
		if !t.match.Match(&entry) {
			t.stats.Skipped++
			continue
		}

		t.last = entry.Cursor
		t.stats.Emitted++
		return entry, nil
	}
}

func (t *Tail) fail(op string, err error) error {
	t.resync = true
	t.stats.ReadErrors++
	t.logger.Warn("tail read failed", zap.String("op", op), zap.Error(err))
	return journal.ReadError(op, err)
}

func (t *Tail) sleep(ctx context.Context, d time.Duration) error {
	timer := t.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// All adapts Next to a range-over-func sequence. Read errors are yielded
// as items; the sequence ends when ctx is done or the tail is closed.
func (t *Tail) All(ctx context.Context) iter.Seq2[domain.Entry, error] {
	return func(yield func(domain.Entry, error) bool) {
		for {
			entry, err := t.Next(ctx)
			if err != nil && (ctx.Err() != nil || errors.Is(err, ErrClosed)) {
				return
			}
			if !yield(entry, err) {
				return
			}
		}
	}
}

// Resume returns the cursor token to continue after, if any entry has
// been emitted (or a resume cursor was configured).
func (t *Tail) Resume() (string, bool) {
	return t.last, t.last != ""
}

func (t *Tail) State() State { return t.state }

func (t *Tail) Stats() Stats { return t.stats }

func (t *Tail) Config() Config { return t.cfg }

// Close releases the cursor. It is safe to call more than once.
func (t *Tail) Close() error {
	if t.state == StateTerminal {
		return nil
	}
	t.state = StateTerminal
	return t.cursor.Close()
}
