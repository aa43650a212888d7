//go:build linux && cgo

package sdjournal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/coreos/go-systemd/v22/sdjournal"

	"github.com/vburojevic/journalq/internal/journal"
)

// Available reports whether Open can work on this build.
const Available = true

// Cursor wraps an sd_journal handle.
type Cursor struct {
	j *sdjournal.Journal

	entry *sdjournal.JournalEntry // cached for the current position
	// atTail is set after SeekTail, which has already stepped back onto
	// the last entry so that Next only yields later appends.
	atTail     bool
	tailExists bool
}

var _ journal.Cursor = (*Cursor)(nil)

// Open opens the journal at paths. No paths (or a single empty one) opens
// the local system journal. A single directory is opened as a journal
// directory; several directories are expanded to their *.journal files.
func Open(paths ...string) (journal.Cursor, error) {
	j, err := openJournal(paths)
	if err != nil {
		return nil, err
	}
	return &Cursor{j: j}, nil
}

func openJournal(paths []string) (*sdjournal.Journal, error) {
	if len(paths) == 0 || (len(paths) == 1 && paths[0] == "") {
		return sdjournal.NewJournal()
	}
	if len(paths) == 1 {
		info, err := os.Stat(paths[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return sdjournal.NewJournalFromDir(paths[0])
		}
		return sdjournal.NewJournalFromFiles(paths[0])
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		for _, pattern := range []string{"*.journal", "*/*.journal"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no journal files under %v", paths)
	}
	return sdjournal.NewJournalFromFiles(files...)
}

func (c *Cursor) moved() {
	c.entry = nil
	c.atTail = false
}

func (c *Cursor) SeekHead() error {
	c.moved()
	return c.j.SeekHead()
}

func (c *Cursor) SeekTail() error {
	c.moved()
	if err := c.j.SeekTail(); err != nil {
		return err
	}
	n, err := c.j.Previous()
	if err != nil {
		return err
	}
	c.atTail = true
	c.tailExists = n > 0
	return nil
}

func (c *Cursor) SeekRealtime(usec uint64) error {
	c.moved()
	return c.j.SeekRealtimeUsec(usec)
}

// SeekCursor positions strictly after token. sd_journal lands on the
// entry itself after one step, or on its successor when the entry is gone.
func (c *Cursor) SeekCursor(token string) error {
	c.moved()
	if err := c.j.SeekCursor(token); err != nil {
		return err
	}
	n, err := c.j.Next()
	if err != nil || n == 0 {
		return err
	}
	if c.j.TestCursor(token) != nil {
		_, err = c.j.Previous()
	}
	return err
}

func (c *Cursor) Next() (bool, error) {
	c.moved()
	n, err := c.j.Next()
	return n > 0, err
}

func (c *Cursor) Previous() (bool, error) {
	if c.atTail {
		c.atTail = false
		return c.tailExists, nil
	}
	c.moved()
	n, err := c.j.Previous()
	return n > 0, err
}

func (c *Cursor) current() (*sdjournal.JournalEntry, error) {
	if c.entry == nil {
		e, err := c.j.GetEntry()
		if err != nil {
			return nil, err
		}
		c.entry = e
	}
	return c.entry, nil
}

func (c *Cursor) Field(name string) (string, bool, error) {
	e, err := c.current()
	if err != nil {
		return "", false, err
	}
	switch name {
	case journal.FieldRealtimeTimestamp:
		return strconv.FormatUint(e.RealtimeTimestamp, 10), true, nil
	case journal.FieldCursor:
		return e.Cursor, e.Cursor != "", nil
	}
	v, ok := e.Fields[name]
	return v, ok, nil
}

func (c *Cursor) Token() (string, error) {
	if c.entry != nil {
		return c.entry.Cursor, nil
	}
	return c.j.GetCursor()
}

func (c *Cursor) Wait(timeout time.Duration) (journal.WaitResult, error) {
	switch r := c.j.Wait(timeout); {
	case r == sdjournal.SD_JOURNAL_APPEND:
		return journal.WaitAppend, nil
	case r == sdjournal.SD_JOURNAL_INVALIDATE:
		return journal.WaitInvalidate, nil
	case r < 0:
		return journal.WaitNop, fmt.Errorf("sd_journal_wait: %d", r)
	default:
		return journal.WaitNop, nil
	}
}

func (c *Cursor) Close() error {
	if c.j == nil {
		return nil
	}
	err := c.j.Close()
	c.j = nil
	return err
}
