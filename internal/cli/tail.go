package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/output"
	"github.com/vburojevic/journalq/internal/tail"
)

// TailCmd follows new entries for one host
type TailCmd struct {
	FilterFlags

	Host       string        `short:"H" required:"" help:"Hostname to follow"`
	Unit       []string      `short:"u" help:"Unit to follow (repeatable); omit to follow every unit of the host"`
	Since      string        `short:"s" xor:"start" help:"Start this far back (e.g. '30s') instead of now; default from config"`
	FromNow    bool          `xor:"start" help:"Start at the end of the journal, ignoring tail.since from config"`
	Poll       time.Duration `help:"How long to wait for new data per poll (default from config, 100ms)"`
	StateFile  string        `type:"path" help:"Persist the last cursor per host/unit here and resume from it"`
	MaxEntries int           `help:"Stop after this many entries (0 = unlimited)"`
}

// tailEvent carries one item from a per-unit tail to the writer.
type tailEvent struct {
	unit  string
	entry domain.Entry
	err   error
}

// Run executes the tail command
func (c *TailCmd) Run(globals *Globals) error {
	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, globals)
}

func (c *TailCmd) run(ctx context.Context, globals *Globals) error {
	if c.MaxEntries < 0 {
		return invalidFlags(globals, "--max-entries must not be negative, got %d", c.MaxEntries)
	}
	base, err := c.config(globals)
	if err != nil {
		return err
	}
	match, err := c.all(globals)
	if err != nil {
		return err
	}
	base = base.WithFilter(match)

	open, err := globals.opener()
	if err != nil {
		return invalidFlags(globals, "%v", err)
	}

	var state *tail.StateFile
	if path := c.stateFile(globals); path != "" {
		state, err = tail.OpenStateFile(path)
		if err != nil {
			if errors.Is(err, tail.ErrStateLocked) {
				return failed(globals, err)
			}
			return outputError(globals, CodeStateFailed, err.Error(), err)
		}
		defer state.Close()
	}

	// Unique ID for this tail invocation (carried on all records)
	tailID := uuid.NewString()
	logger := globals.Logger().Named("tail").With(zap.String("tail_id", tailID))
	clk := globals.clock()

	units := c.Unit
	if len(units) == 0 {
		units = []string{""}
	}

	tails := make([]*tail.Tail, 0, len(units))
	defer func() {
		for _, t := range tails {
			t.Close()
		}
	}()
	for _, unit := range units {
		cfg := base
		cfg.Unit = unit
		if state != nil {
			if cp, ok := state.Load(c.Host, unit); ok {
				cfg = cfg.WithResumeCursor(cp.Cursor)
			}
		}
		t, err := tail.New(cfg, tail.WithOpener(open), tail.WithClock(clk), tail.WithLogger(logger))
		if err != nil {
			return failed(globals, err)
		}
		tails = append(tails, t)
	}

	w := globals.writer()
	if !globals.Quiet {
		info := &output.InfoOutput{
			Message:  fmt.Sprintf("Tailing %s", c.Host),
			Hostname: c.Host,
			Unit:     strings.Join(c.Unit, ","),
			Since:    base.InitialPosition.String(),
			Mode:     "tail",
			TailID:   tailID,
		}
		if base.ResumeCursor != "" || state != nil {
			info.Mode = "tail+resume"
		}
		if err := w.WriteInfo(info); err != nil {
			return err
		}
	}

	started := clk.Now()
	emitted, err := c.follow(ctx, globals, w, tails, state, tailID)
	if err != nil {
		return err
	}

	if globals.Quiet {
		return nil
	}
	if c.MaxEntries > 0 && emitted >= c.MaxEntries {
		if err := w.WriteCutoff("max_entries", tailID, emitted); err != nil {
			return err
		}
	}
	for _, t := range tails {
		st := t.Stats()
		err := w.WriteStats(&output.StatsOutput{
			Command:    "tail",
			TailID:     tailID,
			Unit:       t.Config().Unit,
			Emitted:    st.Emitted,
			Skipped:    st.Skipped,
			Malformed:  st.Malformed,
			ReadErrors: st.ReadErrors,
			Recoveries: st.Recoveries,
			DurationMS: clk.Since(started).Milliseconds(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// follow runs one goroutine per tail and serializes their output. It
// returns when ctx is done or MaxEntries entries were written.
func (c *TailCmd) follow(ctx context.Context, globals *Globals, w output.Writer, tails []*tail.Tail, state *tail.StateFile, tailID string) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tailEvent)
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tails {
		unit := t.Config().Unit
		g.Go(func() error {
			for entry, err := range t.All(gctx) {
				select {
				case events <- tailEvent{unit: unit, entry: entry, err: err}:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(events)
	}()

	emitted := 0
	handle := func(ev tailEvent) error {
		if ev.err != nil {
			globals.Logger().Warn("tail read error", zap.String("unit", ev.unit), zap.Error(ev.err))
			if globals.Quiet {
				return nil
			}
			return w.WriteWarning(ev.err.Error())
		}
		if err := w.Write(&ev.entry, tailID); err != nil {
			return err
		}
		if state != nil {
			if err := state.Save(c.Host, ev.unit, ev.entry.Cursor, globals.clock().Now()); err != nil {
				return outputError(globals, CodeStateFailed, err.Error(), err)
			}
		}
		emitted++
		if c.MaxEntries > 0 && emitted >= c.MaxEntries {
			return errCutoff
		}
		return nil
	}

	var werr error
	for ev := range events {
		if werr != nil {
			continue // drain until every producer has seen the cancel
		}
		if werr = handle(ev); werr != nil {
			cancel()
		}
	}
	if errors.Is(werr, errCutoff) {
		werr = nil
	}
	return emitted, werr
}

var errCutoff = errors.New("cutoff reached")

// config builds the per-unit tail config shared by every unit.
func (c *TailCmd) config(globals *Globals) (tail.Config, error) {
	paths := globals.paths()
	if len(paths) > 1 {
		return tail.Config{}, invalidFlags(globals, "tail reads a single journal path, got %d", len(paths))
	}
	var path string
	if len(paths) == 1 {
		path = paths[0]
	}
	cfg := tail.NewConfig(c.Host, "", path)

	poll := c.Poll
	if poll == 0 && globals.Config.Tail.PollInterval != "" {
		d, err := time.ParseDuration(globals.Config.Tail.PollInterval)
		if err != nil {
			return cfg, invalidFlags(globals, "invalid tail.poll_interval in config: %v", err)
		}
		poll = d
	}
	if poll < 0 {
		return cfg, invalidFlags(globals, "--poll must be positive, got %s", poll)
	}
	if poll > 0 {
		cfg = cfg.WithPollInterval(poll)
	}

	since := c.Since
	if since == "" && !c.FromNow {
		since = globals.Config.Tail.Since
	}
	if since != "" {
		secs, err := parseSeconds(since)
		if err != nil {
			return cfg, invalidFlags(globals, "invalid --since: %v", err)
		}
		cfg = cfg.WithInitialPosition(tail.OffsetSecondsAgo(secs))
	}
	return cfg, nil
}

func (c *TailCmd) stateFile(globals *Globals) string {
	if c.StateFile != "" {
		return c.StateFile
	}
	return globals.Config.Tail.StateFile
}
