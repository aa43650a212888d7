// Package tail follows a journal live, emitting each new entry for one
// host and unit exactly once.
package tail

import (
	"fmt"
	"time"

	"github.com/vburojevic/journalq/internal/filter"
)

// DefaultPollInterval bounds how long a tail blocks waiting for data.
const DefaultPollInterval = 100 * time.Millisecond

// Position selects where a new tail starts reading.
type Position struct {
	fromNow bool
	seconds uint64
}

// FromNow starts after the last entry that exists when the tail opens.
func FromNow() Position { return Position{fromNow: true} }

// OffsetSecondsAgo starts at entries whose timestamp is at least n
// seconds before the tail opened.
func OffsetSecondsAgo(n uint64) Position { return Position{seconds: n} }

// IsFromNow reports whether p is FromNow.
func (p Position) IsFromNow() bool { return p.fromNow }

// Seconds returns the offset of an OffsetSecondsAgo position.
func (p Position) Seconds() uint64 { return p.seconds }

func (p Position) String() string {
	if p.fromNow {
		return "now"
	}
	return fmt.Sprintf("%ds ago", p.seconds)
}

// Config describes a tail. Build it with NewConfig; the With methods
// return modified copies.
type Config struct {
	Hostname        string
	Unit            string // empty follows every unit of Hostname
	JournalPath     string // empty opens the local system journal
	PollInterval    time.Duration
	InitialPosition Position
	Filter          filter.Filter
	ResumeCursor    string
}

// NewConfig returns a config starting from now with the default poll
// interval.
func NewConfig(hostname, unit, journalPath string) Config {
	return Config{
		Hostname:        hostname,
		Unit:            unit,
		JournalPath:     journalPath,
		PollInterval:    DefaultPollInterval,
		InitialPosition: FromNow(),
	}
}

func (c Config) WithPollInterval(d time.Duration) Config {
	c.PollInterval = d
	return c
}

func (c Config) WithInitialPosition(p Position) Config {
	c.InitialPosition = p
	return c
}

// WithFilter adds a predicate applied after hostname and unit.
func (c Config) WithFilter(f filter.Filter) Config {
	c.Filter = f
	return c
}

// WithResumeCursor continues strictly after token. It takes precedence
// over the initial position.
func (c Config) WithResumeCursor(token string) Config {
	c.ResumeCursor = token
	return c
}

func (c Config) validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("tail: hostname is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("tail: poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func (c Config) paths() []string {
	if c.JournalPath == "" {
		return nil
	}
	return []string{c.JournalPath}
}

func (c Config) matcher() filter.Chain {
	c2 := filter.NewChain(filter.Hostname(c.Hostname))
	if c.Unit != "" {
		c2 = append(c2, filter.Unit(c.Unit))
	}
	if c.Filter != nil {
		c2 = append(c2, c.Filter)
	}
	return c2
}
