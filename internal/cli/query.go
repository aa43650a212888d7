package cli

import (
	"fmt"
	"time"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/output"
	"github.com/vburojevic/journalq/internal/query"
)

// QueryCmd reads entries in a closed time range
type QueryCmd struct {
	FilterFlags

	Since   string `short:"s" help:"How far back to query (e.g. '5m', '1h'); default from config"`
	Start   string `help:"Range start: RFC3339, @unix, or a duration ago (overrides --since)"`
	End     string `help:"Range end, inclusive; same forms as --start (default now)"`
	Host    string `short:"H" help:"Only entries from this hostname"`
	Unit    string `short:"u" help:"Only entries from this unit"`
	Limit   int    `short:"n" default:"-1" help:"Maximum number of entries (0 = unlimited; default from config)"`
	Analyze bool   `help:"Append an analysis record (priority counts, top errors, patterns)"`
}

// Run executes the query command
func (c *QueryCmd) Run(globals *Globals) error {
	q, err := c.build(globals)
	if err != nil {
		return err
	}

	open, err := globals.opener()
	if err != nil {
		return invalidFlags(globals, "%v", err)
	}

	ctx, stop := signalContext()
	defer stop()

	clk := globals.clock()
	w := globals.writer()

	if !globals.Quiet {
		info := &output.InfoOutput{
			Message:  fmt.Sprintf("Querying %s .. %s", domain.MicrosToTime(q.Start()).Format(time.RFC3339), domain.MicrosToTime(q.End()).Format(time.RFC3339)),
			Hostname: c.Host,
			Unit:     c.Unit,
			Since:    c.Since,
			Mode:     "query",
		}
		if err := w.WriteInfo(info); err != nil {
			return err
		}
	}

	var analyzer *output.Analyzer
	if c.Analyze {
		analyzer = output.NewAnalyzer()
	}

	started := clk.Now()
	engine := query.NewEngine(open, query.WithLogger(globals.Logger().Named("query")))
	stats, err := engine.Each(ctx, q, func(e domain.Entry) error {
		if analyzer != nil {
			analyzer.Add(&e)
		}
		return w.Write(&e, "")
	}, globals.paths()...)
	if err != nil {
		return failed(globals, err)
	}

	if analyzer != nil {
		if err := w.WriteAnalysis(output.NewAnalysisOutput(analyzer.Summary(), analyzer.Patterns(), clk.Now())); err != nil {
			return err
		}
	}
	if globals.Quiet {
		return nil
	}
	return w.WriteStats(&output.StatsOutput{
		Command:    "query",
		Scanned:    stats.Scanned,
		Matched:    stats.Matched,
		Malformed:  stats.Malformed,
		DurationMS: clk.Since(started).Milliseconds(),
	})
}

// build validates the flags and assembles the query.
func (c *QueryCmd) build(globals *Globals) (query.Query, error) {
	now := globals.clock().Now()
	cfg := globals.Config

	startSpec := c.Start
	if startSpec == "" {
		startSpec = c.Since
		if startSpec == "" {
			startSpec = cfg.Query.Since
		}
	}
	start, err := parseTimeOrDuration(startSpec, now)
	if err != nil {
		return query.Query{}, invalidFlags(globals, "invalid start: %v", err)
	}

	end := now
	if c.End != "" {
		end, err = parseTimeOrDuration(c.End, now)
		if err != nil {
			return query.Query{}, invalidFlags(globals, "invalid --end: %v", err)
		}
	}

	q, err := query.Between(start, end)
	if err != nil {
		return query.Query{}, failed(globals, err)
	}

	limit := c.Limit
	if limit < 0 {
		limit = cfg.Query.Limit
	}
	q = q.Hostname(c.Host).Unit(c.Unit).MessageContains(c.Grep).Limit(limit)

	p, ok, err := c.priority(globals)
	if err != nil {
		return query.Query{}, err
	}
	if ok {
		q = q.MaxPriority(p)
	}

	extra, err := c.extra(globals)
	if err != nil {
		return query.Query{}, err
	}
	if extra != nil {
		q = q.Filter(extra)
	}
	return q, nil
}
