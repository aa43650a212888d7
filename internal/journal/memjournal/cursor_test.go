package memjournal

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/journalq/internal/journal"
)

func seeded(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(opts...)
	s.Append(
		Entry(100, "web-1", "nginx.service", "a"),
		Entry(200, "web-1", "nginx.service", "b"),
		Entry(300, "web-1", "nginx.service", "c"),
	)
	return s
}

func messages(t *testing.T, c *Cursor) []string {
	t.Helper()
	var out []string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		msg, _, err := c.Field(journal.FieldMessage)
		require.NoError(t, err)
		out = append(out, msg)
	}
}

func TestCursorSeekHead(t *testing.T) {
	c, err := seeded(t).OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SeekHead())
	assert.Equal(t, []string{"a", "b", "c"}, messages(t, c))
}

func TestCursorSeekRealtime(t *testing.T) {
	tests := []struct {
		name string
		usec uint64
		want []string
	}{
		{"before first", 50, []string{"a", "b", "c"}},
		{"exact", 200, []string{"b", "c"}},
		{"between", 250, []string{"c"}},
		{"after last", 400, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := seeded(t).OpenCursor()
			require.NoError(t, err)
			defer c.Close()

			require.NoError(t, c.SeekRealtime(tt.usec))
			assert.Equal(t, tt.want, messages(t, c))
		})
	}
}

func TestCursorSeekCursorLandsAfterToken(t *testing.T) {
	s := seeded(t)
	c, err := s.OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SeekCursor(s.Token(0)))
	assert.Equal(t, []string{"b", "c"}, messages(t, c))

	require.NoError(t, c.SeekCursor(s.Token(2)))
	assert.Empty(t, messages(t, c))

	assert.ErrorIs(t, c.SeekCursor("bogus"), ErrUnknownCursor)
}

func TestCursorSeekTailThenPrevious(t *testing.T) {
	c, err := seeded(t).OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SeekTail())
	ok, err := c.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SeekTail())
	ok, err = c.Previous()
	require.NoError(t, err)
	require.True(t, ok)
	msg, _, err := c.Field(journal.FieldMessage)
	require.NoError(t, err)
	assert.Equal(t, "c", msg)

	ok, err = c.Previous()
	require.NoError(t, err)
	require.True(t, ok)
	msg, _, _ = c.Field(journal.FieldMessage)
	assert.Equal(t, "b", msg)
}

func TestCursorSeesAppends(t *testing.T) {
	s := seeded(t)
	c, err := s.OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SeekHead())
	assert.Len(t, messages(t, c), 3)

	s.Append(Entry(400, "web-1", "nginx.service", "d"))
	assert.Equal(t, []string{"d"}, messages(t, c))
}

func TestCursorFieldsAndTokens(t *testing.T) {
	s := New()
	s.Append(
		Entry(1, "", "", "bare").Without(journal.FieldMessage),
		Record{Fields: map[string]string{journal.FieldMessage: "x"}, NoCursor: true},
		Entry(2, "h", "u", "explicit").With(journal.FieldPriority, "3"),
	)
	c, err := s.OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	_, _, err = c.Field(journal.FieldMessage)
	assert.ErrorIs(t, err, ErrNotPositioned)

	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)
	_, present, err := c.Field(journal.FieldMessage)
	require.NoError(t, err)
	assert.False(t, present)

	ok, _ = c.Next()
	require.True(t, ok)
	tok, err := c.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)

	ok, _ = c.Next()
	require.True(t, ok)
	p, present, err := c.Field(journal.FieldPriority)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "3", p)
	tok, err = c.Token()
	require.NoError(t, err)
	assert.Equal(t, s.Token(2), tok)
}

func TestCursorFaultInjection(t *testing.T) {
	s := seeded(t)
	c, err := s.OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	boom := errors.New("boom")
	s.FailNext(boom)
	_, err = c.Next()
	assert.ErrorIs(t, err, boom)

	ok, err := c.Next()
	require.NoError(t, err)
	assert.True(t, ok)

	s.FailField(boom)
	_, _, err = c.Field(journal.FieldMessage)
	assert.ErrorIs(t, err, boom)

	s.FailOpen(boom)
	_, err = s.Open()
	assert.ErrorIs(t, err, boom)
}

func TestCursorWait(t *testing.T) {
	mock := clock.NewMock()
	s := seeded(t, WithClock(mock))
	c, err := s.OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	done := make(chan journal.WaitResult)
	go func() {
		r, _ := c.Wait(time.Second)
		done <- r
	}()
	s.Append(Entry(400, "web-1", "nginx.service", "d"))
	assert.Equal(t, journal.WaitAppend, <-done)

	go func() {
		r, _ := c.Wait(time.Second)
		done <- r
	}()
	// let the waiter register its timer before moving the clock
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case r := <-done:
			assert.Equal(t, journal.WaitNop, r)
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestCursorWaitReportsEarlierAppend(t *testing.T) {
	s := seeded(t)
	c, err := s.OpenCursor()
	require.NoError(t, err)
	defer c.Close()

	s.Append(Entry(400, "web-1", "nginx.service", "d"))
	r, err := c.Wait(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, journal.WaitAppend, r)
}

func TestCloseReleases(t *testing.T) {
	s := seeded(t)
	c, err := s.OpenCursor()
	require.NoError(t, err)
	assert.Equal(t, 1, s.OpenCursors())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 0, s.OpenCursors())

	_, err = c.Next()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDirsOpen(t *testing.T) {
	d := Dirs{"/var/log/journal": seeded(t)}
	c, err := d.Open("/var/log/journal")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = d.Open("/missing")
	assert.Error(t, err)
	_, err = d.Open()
	assert.Error(t, err)
}
