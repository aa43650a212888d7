// Package discovery builds the host to unit inventory of a journal.
package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/backend"
	"github.com/vburojevic/journalq/internal/logging"
)

// Stats summarizes one discovery run.
type Stats struct {
	Scanned int // entries visited
	Skipped int // entries without a readable hostname or unit
}

// Discoverer scans journals for the hosts and units they contain.
type Discoverer struct {
	open        journal.Opener
	logger      *zap.Logger
	concurrency int

	mu    sync.Mutex
	stats Stats
}

// Option configures a Discoverer
type Option func(*Discoverer)

// WithLogger sets the logger for per-entry skips and run totals.
func WithLogger(l *zap.Logger) Option {
	return func(d *Discoverer) { d.logger = logging.OrNop(l) }
}

// WithConcurrency bounds how many paths are scanned at once.
func WithConcurrency(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New creates a Discoverer over open.
func New(open journal.Opener, opts ...Option) *Discoverer {
	d := &Discoverer{open: open, logger: zap.NewNop(), concurrency: 4}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns the totals of the last Discover call.
func (d *Discoverer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Discover scans every entry reachable from paths. Several paths are
// scanned concurrently, one cursor each, and merged. No paths opens the
// backend's default journal.
func (d *Discoverer) Discover(ctx context.Context, paths ...string) (domain.Hosts, error) {
	d.mu.Lock()
	d.stats = Stats{}
	d.mu.Unlock()

	if len(paths) <= 1 {
		inv, err := d.scan(ctx, paths)
		if err != nil {
			return domain.Hosts{}, err
		}
		return domain.NewHosts(inv), nil
	}

	results := make([]domain.Hosts, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			inv, err := d.scan(gctx, []string{p})
			results[i] = domain.NewHosts(inv)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Hosts{}, err
	}

	var merged domain.Hosts
	for _, h := range results {
		merged = merged.Merge(h)
	}
	return merged, nil
}

func (d *Discoverer) scan(ctx context.Context, paths []string) (map[string]map[string]struct{}, error) {
	c, err := d.open(paths...)
	if err != nil {
		return nil, journal.OpenError(paths, err)
	}
	defer c.Close()

	if err := c.SeekHead(); err != nil {
		return nil, journal.ReadError("seek head", err)
	}

	inv := make(map[string]map[string]struct{})
	var st Stats
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := c.Next()
		if err != nil {
			return nil, journal.ReadError("next", err)
		}
		if !ok {
			break
		}
		st.Scanned++

		host, unit, ok, err := journal.HostUnit(c)
		if err != nil || !ok {
			st.Skipped++
			if err != nil {
				d.logger.Debug("skipping unreadable entry", zap.Error(err))
			}
			continue
		}
		if inv[host] == nil {
			inv[host] = make(map[string]struct{})
		}
		inv[host][unit] = struct{}{}
	}

	d.mu.Lock()
	d.stats.Scanned += st.Scanned
	d.stats.Skipped += st.Skipped
	d.mu.Unlock()
	d.logger.Debug("discovery scan complete",
		zap.Strings("paths", paths),
		zap.Int("scanned", st.Scanned),
		zap.Int("skipped", st.Skipped),
		zap.Int("hosts", len(inv)))
	return inv, nil
}

// DiscoverServices scans the journal at path with the default backend.
// An empty path means the local system journal.
func DiscoverServices(ctx context.Context, path string) (domain.Hosts, error) {
	return New(backend.Default()).Discover(ctx, pathArgs(path)...)
}

// DiscoverHosts returns the sorted hostnames found at path.
func DiscoverHosts(ctx context.Context, path string) ([]string, error) {
	hosts, err := DiscoverServices(ctx, path)
	if err != nil {
		return nil, err
	}
	return hosts.Hostnames(), nil
}

// DiscoverUnits returns the sorted, deduplicated units found at path.
func DiscoverUnits(ctx context.Context, path string) ([]string, error) {
	hosts, err := DiscoverServices(ctx, path)
	if err != nil {
		return nil, err
	}
	return hosts.AllUnits(), nil
}

// DiscoverHostsAndUnits returns both lists from a single scan.
func DiscoverHostsAndUnits(ctx context.Context, path string) (hostnames, units []string, err error) {
	hosts, err := DiscoverServices(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return hosts.Hostnames(), hosts.AllUnits(), nil
}

func pathArgs(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}
