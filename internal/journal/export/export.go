// Package export reads directories of `journalctl -o json` output as a
// journal. Plain files are treated as append-only and followed with
// fsnotify; `.json.zst` archives are read once.
package export

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/memjournal"
)

// Option configures Open.
type Option func(*options)

type options struct {
	clock  clock.Clock
	logger *zap.Logger
	follow bool
}

// WithClock sets the clock used for Wait timeouts.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger for skipped lines and watcher errors.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithoutFollow disables the fsnotify watcher. Wait then only rescans on
// timeout.
func WithoutFollow() Option {
	return func(o *options) { o.follow = false }
}

// Opener returns a journal.Opener bound to opts.
func Opener(opts ...Option) journal.Opener {
	return func(paths ...string) (journal.Cursor, error) {
		return Open(paths, opts...)
	}
}

// Cursor is a journal.Cursor over export files.
type Cursor struct {
	*memjournal.Cursor

	store   *memjournal.Store
	sources []*source
	dirs    []string
	known   map[string]bool
	tokens  map[string]bool
	watcher *fsnotify.Watcher
	clock   clock.Clock
	logger  *zap.Logger
}

var _ journal.Cursor = (*Cursor)(nil)

// Open loads every export file under paths and positions the cursor at
// the head.
func Open(paths []string, opts ...Option) (*Cursor, error) {
	o := options{clock: clock.New(), logger: zap.NewNop(), follow: true}
	for _, opt := range opts {
		opt(&o)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("export: no paths given")
	}

	files, dirs, err := listFiles(paths)
	if err != nil {
		return nil, err
	}

	c := &Cursor{
		store:  memjournal.New(memjournal.WithClock(o.clock)),
		dirs:   dirs,
		known:  make(map[string]bool),
		tokens: make(map[string]bool),
		clock:  o.clock,
		logger: o.logger,
	}
	c.addSources(files)
	if _, err := c.refresh(); err != nil {
		return nil, err
	}

	if o.follow {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if err := w.Add(p); err != nil {
				w.Close()
				return nil, err
			}
		}
		c.watcher = w
	}

	mc, err := c.store.OpenCursor()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Cursor = mc
	return c, nil
}

func (c *Cursor) addSources(files []string) {
	for _, f := range files {
		if c.known[f] {
			continue
		}
		c.known[f] = true
		c.sources = append(c.sources, &source{path: f})
	}
}

// refresh ingests lines appended since the last call and picks up new
// files in watched directories. Each batch is ordered by realtime
// timestamp so entries from several files interleave; later batches
// always land after earlier ones. It returns the number of new entries.
func (c *Cursor) refresh() (int, error) {
	if len(c.dirs) > 0 {
		files, _, err := listFiles(c.dirs)
		if err != nil {
			return 0, err
		}
		c.addSources(files)
	}

	var batch []pending
	for _, src := range c.sources {
		lines, err := src.readNew()
		if err != nil {
			return 0, err
		}
		for _, line := range lines {
			fields, ok := parseLine(line)
			if !ok {
				c.logger.Debug("skipping malformed export line", zap.String("file", src.path))
				continue
			}
			token := fields[journal.FieldCursor]
			if token != "" {
				if c.tokens[token] {
					c.logger.Debug("skipping duplicate export entry",
						zap.String("file", src.path), zap.String("cursor", token))
					continue
				}
				c.tokens[token] = true
			}
			rt, _ := strconv.ParseUint(fields[journal.FieldRealtimeTimestamp], 10, 64)
			batch = append(batch, pending{
				realtime: rt,
				record: memjournal.Record{
					Fields:   fields,
					Cursor:   token,
					NoCursor: token == "",
				},
			})
		}
	}
	slices.SortStableFunc(batch, func(a, b pending) int {
		return cmp.Compare(a.realtime, b.realtime)
	})

	records := make([]memjournal.Record, len(batch))
	for i, p := range batch {
		records[i] = p.record
	}
	c.store.Append(records...)
	return len(records), nil
}

type pending struct {
	realtime uint64
	record   memjournal.Record
}

// Wait rescans the files and, when nothing new arrived, blocks until the
// watcher reports a change or timeout elapses.
func (c *Cursor) Wait(timeout time.Duration) (journal.WaitResult, error) {
	n, err := c.refresh()
	if err != nil {
		return journal.WaitNop, err
	}
	if n > 0 {
		return c.Cursor.Wait(0)
	}

	timer := c.clock.Timer(timeout)
	defer timer.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if c.watcher != nil {
		events, errs = c.watcher.Events, c.watcher.Errors
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return journal.WaitNop, nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			n, err := c.refresh()
			if err != nil {
				return journal.WaitNop, err
			}
			if n > 0 {
				return c.Cursor.Wait(0)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.Debug("export watcher error", zap.Error(err))
		case <-timer.C:
			if n, err := c.refresh(); err != nil || n > 0 {
				if err != nil {
					return journal.WaitNop, err
				}
				return c.Cursor.Wait(0)
			}
			return journal.WaitNop, nil
		}
	}
}

// Close stops the watcher and releases the cursor.
func (c *Cursor) Close() error {
	var err error
	if c.watcher != nil {
		err = c.watcher.Close()
		c.watcher = nil
	}
	if c.Cursor != nil {
		c.Cursor.Close()
	}
	return err
}
