package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/backend"
	"github.com/vburojevic/journalq/internal/logging"
)

// Stats counts what one run saw.
type Stats struct {
	Scanned   int // entries decoded or attempted
	Matched   int
	Malformed int // skipped decode failures
}

// Engine runs queries against journals opened through an Opener.
type Engine struct {
	open   journal.Opener
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger for skipped entries and run totals.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// NewEngine creates an Engine.
func NewEngine(open journal.Opener, opts ...Option) *Engine {
	e := &Engine{open: open, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run collects all matching entries in cursor order.
func (e *Engine) Run(ctx context.Context, q Query, paths ...string) ([]domain.Entry, error) {
	var out []domain.Entry
	_, err := e.Each(ctx, q, func(entry domain.Entry) error {
		out = append(out, entry)
		return nil
	}, paths...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each streams matching entries to fn. Returning an error from fn stops
// the run and returns that error.
func (e *Engine) Each(ctx context.Context, q Query, fn func(domain.Entry) error, paths ...string) (Stats, error) {
	var st Stats
	c, err := e.open(paths...)
	if err != nil {
		return st, journal.OpenError(paths, err)
	}
	defer c.Close()

	if err := c.SeekRealtime(q.start); err != nil {
		return st, journal.ReadError("seek realtime", err)
	}

	match := q.matcher()
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		ok, err := c.Next()
		if err != nil {
			return st, journal.ReadError("next", err)
		}
		if !ok {
			break
		}
		st.Scanned++

		entry, err := journal.Decode(c)
		if err != nil {
			if journal.IsDecodeError(err) {
				st.Malformed++
				e.logger.Debug("skipping malformed entry", zap.Error(err))
				continue
			}
			return st, journal.ReadError("read entry", err)
		}
		if entry.TimestampMicros > q.end {
			break
		}
		// realtime clocks can step backwards; keep results inside the range
		if entry.TimestampMicros < q.start {
			continue
		}
		if !match.Match(&entry) {
			continue
		}

		st.Matched++
		if err := fn(entry); err != nil {
			return st, err
		}
		if q.limit > 0 && st.Matched >= q.limit {
			break
		}
	}

	e.logger.Debug("query complete",
		zap.Strings("paths", paths),
		zap.Int("scanned", st.Scanned),
		zap.Int("matched", st.Matched),
		zap.Int("malformed", st.Malformed))
	return st, nil
}

// Journal runs q against the journal at path with the default backend.
// An empty path means the local system journal.
func Journal(ctx context.Context, path string, q Query) ([]domain.Entry, error) {
	var paths []string
	if path != "" {
		paths = []string{path}
	}
	return NewEngine(backend.Default()).Run(ctx, q, paths...)
}
