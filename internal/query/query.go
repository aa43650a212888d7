// Package query runs bounded, filtered reads over a journal time range.
package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/filter"
)

// ErrInvalidRange is returned by New when start is after end.
var ErrInvalidRange = errors.New("invalid time range: start is after end")

// Query describes one historical read. The zero value is not usable; build
// one with New. Builder methods return modified copies.
type Query struct {
	start, end  uint64 // microseconds, both inclusive
	hostname    string
	unit        string
	contains    string
	maxPriority domain.Priority
	hasMaxPrio  bool
	limit       int
	extra       filter.Filter
}

// New returns a query over [start, end] in microseconds since the epoch.
func New(start, end uint64) (Query, error) {
	if start > end {
		return Query{}, fmt.Errorf("%w (%d > %d)", ErrInvalidRange, start, end)
	}
	return Query{start: start, end: end}, nil
}

// Between is New for time values.
func Between(start, end time.Time) (Query, error) {
	return New(domain.TimeToMicros(start), domain.TimeToMicros(end))
}

func (q Query) Start() uint64 { return q.start }
func (q Query) End() uint64   { return q.end }

// Hostname restricts results to one host. Empty clears the restriction.
func (q Query) Hostname(h string) Query {
	q.hostname = h
	return q
}

// Unit restricts results to one systemd unit.
func (q Query) Unit(u string) Query {
	q.unit = u
	return q
}

// MessageContains keeps entries whose message contains s (case-sensitive).
func (q Query) MessageContains(s string) Query {
	q.contains = s
	return q
}

// MaxPriority keeps entries at least as severe as p.
func (q Query) MaxPriority(p domain.Priority) Query {
	q.maxPriority, q.hasMaxPrio = p, true
	return q
}

// Limit caps the number of results; zero or less means unlimited.
func (q Query) Limit(n int) Query {
	q.limit = max(n, 0)
	return q
}

// Filter adds an arbitrary predicate evaluated after the built-in ones.
func (q Query) Filter(f filter.Filter) Query {
	q.extra = f
	return q
}

// matcher assembles the predicates in evaluation order.
func (q Query) matcher() filter.Chain {
	var c filter.Chain
	if q.hostname != "" {
		c = append(c, filter.Hostname(q.hostname))
	}
	if q.unit != "" {
		c = append(c, filter.Unit(q.unit))
	}
	if q.hasMaxPrio {
		c = append(c, filter.MaxPriority(q.maxPriority))
	}
	if q.contains != "" {
		c = append(c, filter.Contains(q.contains))
	}
	if q.extra != nil {
		c = append(c, q.extra)
	}
	return c
}
