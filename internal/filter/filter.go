// Package filter holds entry predicates shared by query and tail.
package filter

import (
	"strings"

	"github.com/vburojevic/journalq/internal/domain"
)

// Filter determines if an entry should be included
type Filter interface {
	// Match returns true if the entry passes the filter
	Match(entry *domain.Entry) bool
}

// Func adapts a plain function to Filter.
type Func func(entry *domain.Entry) bool

func (f Func) Match(entry *domain.Entry) bool { return f(entry) }

// Chain combines filters; all must pass. Nil members are ignored.
type Chain []Filter

// NewChain creates a chain, dropping nil filters.
func NewChain(filters ...Filter) Chain {
	var c Chain
	for _, f := range filters {
		if f != nil {
			c = append(c, f)
		}
	}
	return c
}

func (c Chain) Match(entry *domain.Entry) bool {
	for _, f := range c {
		if !f.Match(entry) {
			return false
		}
	}
	return true
}

// Hostname matches entries whose hostname equals name exactly. An entry
// without a hostname never matches.
type Hostname string

func (h Hostname) Match(entry *domain.Entry) bool {
	return entry.HasHostname() && entry.Hostname == string(h)
}

// Unit matches entries whose unit equals name exactly.
type Unit string

func (u Unit) Match(entry *domain.Entry) bool {
	return entry.HasUnit() && entry.Unit == string(u)
}

// Units matches entries belonging to any of the listed units.
type Units []string

func (u Units) Match(entry *domain.Entry) bool {
	if len(u) == 0 {
		return true
	}
	if !entry.HasUnit() {
		return false
	}
	for _, name := range u {
		if entry.Unit == name {
			return true
		}
	}
	return false
}

// Contains is a case-sensitive substring match on the message.
type Contains string

func (c Contains) Match(entry *domain.Entry) bool {
	return strings.Contains(entry.Message, string(c))
}

// MaxPriority passes entries at least as severe as p (numerically <= p).
type MaxPriority domain.Priority

func (m MaxPriority) Match(entry *domain.Entry) bool {
	return entry.Priority <= domain.Priority(m)
}
