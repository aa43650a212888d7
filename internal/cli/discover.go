package cli

import (
	"fmt"
	"time"

	"github.com/vburojevic/journalq/internal/discovery"
	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/output"
)

// DiscoverCmd lists every host/unit pair in the journal
type DiscoverCmd struct {
	Concurrency int `default:"4" help:"Journal paths scanned in parallel"`
}

// Run executes the discover command
func (c *DiscoverCmd) Run(globals *Globals) error {
	if c.Concurrency < 1 {
		return invalidFlags(globals, "--concurrency must be at least 1, got %d", c.Concurrency)
	}
	hosts, stats, err := discover(globals, c.Concurrency)
	if err != nil {
		return err
	}

	w := globals.writer()
	if err := w.WriteHosts(hosts); err != nil {
		return err
	}
	if globals.Quiet {
		return nil
	}
	return w.WriteStats(&output.StatsOutput{
		Command:    "discover",
		Scanned:    stats.Scanned,
		Skipped:    stats.Skipped,
		DurationMS: stats.Duration.Milliseconds(),
	})
}

type discoverStats struct {
	discovery.Stats
	Duration time.Duration
}

func discover(globals *Globals, concurrency int) (domain.Hosts, discoverStats, error) {
	open, err := globals.opener()
	if err != nil {
		return domain.Hosts{}, discoverStats{}, invalidFlags(globals, "%v", err)
	}

	ctx, stop := signalContext()
	defer stop()

	clk := globals.clock()
	started := clk.Now()
	d := discovery.New(open,
		discovery.WithLogger(globals.Logger().Named("discovery")),
		discovery.WithConcurrency(concurrency),
	)
	hosts, err := d.Discover(ctx, globals.paths()...)
	if err != nil {
		return domain.Hosts{}, discoverStats{}, failed(globals, err)
	}
	return hosts, discoverStats{Stats: d.Stats(), Duration: clk.Since(started)}, nil
}

// HostsCmd lists hostnames
type HostsCmd struct{}

// Run executes the hosts command
func (c *HostsCmd) Run(globals *Globals) error {
	hosts, _, err := discover(globals, 1)
	if err != nil {
		return err
	}
	return globals.writer().WriteNames("hostnames", hosts.Hostnames())
}

// UnitsCmd lists unit names, optionally for a single host
type UnitsCmd struct {
	Host string `short:"H" help:"Only units logged by this host"`
}

// Run executes the units command
func (c *UnitsCmd) Run(globals *Globals) error {
	hosts, _, err := discover(globals, 1)
	if err != nil {
		return err
	}

	units := hosts.AllUnits()
	if c.Host != "" {
		host, ok := hosts.Find(c.Host)
		if !ok {
			if !globals.Quiet {
				if err := globals.writer().WriteWarning(fmt.Sprintf("host %q not found in journal", c.Host)); err != nil {
					return err
				}
			}
			units = nil
		} else {
			units = host.Units
		}
	}
	return globals.writer().WriteNames("units", units)
}
