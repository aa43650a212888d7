package memjournal

import (
	"time"

	"github.com/vburojevic/journalq/internal/journal"
)

// Cursor reads a Store. It mirrors sd-journal positioning: seeks leave
// the cursor between entries, Next and Previous land on one.
type Cursor struct {
	store  *Store
	cur    int // index of current entry, -1 when between entries
	next   int // index Next will land on
	seen   int // store length at last Wait
	closed bool
}

var _ journal.Cursor = (*Cursor)(nil)

func (c *Cursor) SeekHead() error {
	if c.closed {
		return ErrClosed
	}
	c.cur, c.next = -1, 0
	return nil
}

func (c *Cursor) SeekTail() error {
	if c.closed {
		return ErrClosed
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.cur, c.next = -1, len(c.store.entries)
	return nil
}

func (c *Cursor) SeekRealtime(usec uint64) error {
	if c.closed {
		return ErrClosed
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.cur = -1
	c.next = len(c.store.entries)
	for i, e := range c.store.entries {
		if e.realtime >= usec {
			c.next = i
			break
		}
	}
	return nil
}

func (c *Cursor) SeekCursor(token string) error {
	if c.closed {
		return ErrClosed
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if i, ok := c.store.byToken[token]; ok {
		c.cur, c.next = -1, i+1
		return nil
	}
	if seq, ok := c.store.seqFromToken(token); ok {
		// entries are numbered from 1, so the index after seq is seq itself
		c.cur, c.next = -1, min(int(seq), len(c.store.entries))
		return nil
	}
	return ErrUnknownCursor
}

func (c *Cursor) Next() (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if len(c.store.nextErrs) > 0 {
		err := c.store.nextErrs[0]
		c.store.nextErrs = c.store.nextErrs[1:]
		if err != nil {
			return false, err
		}
	}
	if c.next >= len(c.store.entries) {
		c.cur = -1
		return false, nil
	}
	c.cur = c.next
	c.next++
	return true, nil
}

func (c *Cursor) Previous() (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	prev := c.next - 1
	if c.cur >= 0 {
		prev = c.cur - 1
	}
	if prev < 0 {
		return false, nil
	}
	c.cur, c.next = prev, prev+1
	return true, nil
}

func (c *Cursor) Field(name string) (string, bool, error) {
	if c.closed {
		return "", false, ErrClosed
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if len(c.store.fieldErrs) > 0 {
		err := c.store.fieldErrs[0]
		c.store.fieldErrs = c.store.fieldErrs[1:]
		return "", false, err
	}
	if c.cur < 0 {
		return "", false, ErrNotPositioned
	}
	e := c.store.entries[c.cur]
	if name == journal.FieldCursor {
		return e.token, e.token != "", nil
	}
	v, ok := e.fields[name]
	return v, ok, nil
}

func (c *Cursor) Token() (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.cur < 0 {
		return "", ErrNotPositioned
	}
	return c.store.entries[c.cur].token, nil
}

// Wait returns WaitAppend as soon as the store grew since the previous
// Wait (or since open), otherwise blocks until an append or the timeout.
func (c *Cursor) Wait(timeout time.Duration) (journal.WaitResult, error) {
	if c.closed {
		return journal.WaitNop, ErrClosed
	}
	c.store.mu.Lock()
	n := len(c.store.entries)
	changed := c.store.changed
	c.store.mu.Unlock()

	if n > c.seen {
		c.seen = n
		return journal.WaitAppend, nil
	}

	timer := c.store.clock.Timer(timeout)
	defer timer.Stop()
	select {
	case <-changed:
		c.store.mu.Lock()
		c.seen = len(c.store.entries)
		c.store.mu.Unlock()
		return journal.WaitAppend, nil
	case <-timer.C:
		return journal.WaitNop, nil
	}
}

// Close releases the cursor. Closing twice is a no-op.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.mu.Lock()
	c.store.open--
	c.store.mu.Unlock()
	return nil
}
