package tail

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/filter"
	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/memjournal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	dir  = "/var/log/journal"
	host = "web-1"
	unit = "nginx.service"
	poll = 5 * time.Millisecond
)

func entry(usec uint64, msg string) memjournal.Record {
	return memjournal.Entry(usec, host, unit, msg)
}

func cfg() Config {
	return NewConfig(host, unit, dir).WithPollInterval(poll)
}

func open(t *testing.T, s *memjournal.Store, c Config, opts ...Option) *Tail {
	t.Helper()
	opts = append([]Option{WithOpener(memjournal.Dirs{dir: s}.Open)}, opts...)
	tl, err := New(c, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { tl.Close() })
	return tl
}

func next(t *testing.T, tl *Tail) domain.Entry {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e, err := tl.Next(ctx)
	require.NoError(t, err)
	return e
}

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig(host, unit, dir)
	assert.Equal(t, DefaultPollInterval, c.PollInterval)
	assert.True(t, c.InitialPosition.IsFromNow())
	assert.Equal(t, "now", c.InitialPosition.String())

	c2 := c.WithPollInterval(time.Second).WithInitialPosition(OffsetSecondsAgo(30)).WithResumeCursor("tok")
	assert.Equal(t, DefaultPollInterval, c.PollInterval, "builders must not mutate the receiver")
	assert.Equal(t, time.Second, c2.PollInterval)
	assert.Equal(t, uint64(30), c2.InitialPosition.Seconds())
	assert.Equal(t, "30s ago", c2.InitialPosition.String())
	assert.Equal(t, "tok", c2.ResumeCursor)
}

func TestNewValidates(t *testing.T) {
	_, err := New(NewConfig("", unit, dir), WithOpener(memjournal.New().Open))
	assert.ErrorContains(t, err, "hostname is required")
	_, err = New(cfg().WithPollInterval(0), WithOpener(memjournal.New().Open))
	assert.ErrorContains(t, err, "poll interval")
}

func TestNewOpenFailure(t *testing.T) {
	_, err := New(cfg(), WithOpener(memjournal.Dirs{}.Open))
	assert.ErrorIs(t, err, journal.ErrOpenFailed)
}

func TestFromNowYieldsOnlyNewEntries(t *testing.T) {
	s := memjournal.New()
	s.Append(entry(100, "old-1"), entry(200, "old-2"))
	tl := open(t, s, cfg())
	assert.Equal(t, StatePolling, tl.State())

	s.Append(entry(300, "new"))
	e := next(t, tl)
	assert.Equal(t, "new", e.Message)
	assert.Equal(t, uint64(300), e.TimestampMicros)

	tok, ok := tl.Resume()
	assert.True(t, ok)
	assert.Equal(t, e.Cursor, tok)
}

func TestFromNowOnEmptyJournal(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	_, ok := tl.Resume()
	assert.False(t, ok)

	s.Append(entry(1, "first"))
	assert.Equal(t, "first", next(t, tl).Message)
}

func TestNextBlocksUntilAppend(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Append(entry(1, "late"))
	}()
	assert.Equal(t, "late", next(t, tl).Message)
	assert.Positive(t, tl.Stats().Polls)
}

func TestOffsetSecondsAgo(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1000, 0))

	s := memjournal.New()
	s.Append(
		entry(980_000_000, "too old"),
		entry(990_000_000, "boundary"),
		entry(995_000_000, "recent"),
	)
	tl := open(t, s, cfg().WithInitialPosition(OffsetSecondsAgo(10)), WithClock(mock))
	assert.Equal(t, uint64(990_000_000), tl.start.usec)

	assert.Equal(t, "boundary", next(t, tl).Message)
	assert.Equal(t, "recent", next(t, tl).Message)
}

func TestSkipsOtherHostsAndUnits(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())

	s.Append(
		memjournal.Entry(1, "web-2", unit, "other host"),
		memjournal.Entry(2, host, "sshd.service", "other unit"),
		memjournal.Entry(3, "", unit, "no host"),
		entry(4, "mine"),
	)
	assert.Equal(t, "mine", next(t, tl).Message)
	assert.Equal(t, 3, tl.Stats().Skipped)
}

func TestEmptyUnitFollowsWholeHost(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, NewConfig(host, "", dir).WithPollInterval(poll))
	s.Append(
		memjournal.Entry(1, host, "sshd.service", "a"),
		memjournal.Entry(2, "web-2", "sshd.service", "b"),
		memjournal.Entry(3, host, unit, "c"),
	)
	assert.Equal(t, "a", next(t, tl).Message)
	assert.Equal(t, "c", next(t, tl).Message)
}

func TestExtraFilter(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg().WithFilter(filter.Contains("error")))
	s.Append(entry(1, "ok"), entry(2, "error: upstream"))
	assert.Equal(t, "error: upstream", next(t, tl).Message)
}

func TestNoDuplicatesNoGaps(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())

	var want, got []string
	for batch := range 5 {
		for i := range batch + 1 {
			msg := string(rune('a'+batch)) + string(rune('0'+i))
			want = append(want, msg)
			s.Append(entry(uint64(batch*10+i), msg))
			s.Append(memjournal.Entry(uint64(batch*10+i), "noise", unit, "noise"))
		}
		for range batch + 1 {
			got = append(got, next(t, tl).Message)
		}
	}
	assert.Equal(t, want, got)
}

func TestSkipsMalformedEntries(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	s.Append(
		entry(1, "x").Without(journal.FieldMessage),
		memjournal.Record{Fields: entry(2, "no cursor").Fields, NoCursor: true},
		entry(3, "good"),
	)
	assert.Equal(t, "good", next(t, tl).Message)
	assert.Equal(t, 2, tl.Stats().Malformed)
}

func TestReadErrorThenRecovery(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	s.Append(entry(1, "a"), entry(2, "b"), entry(3, "c"))

	assert.Equal(t, "a", next(t, tl).Message)

	boom := errors.New("EIO")
	s.FailNext(boom)
	_, err := tl.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrReadFailed)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, "b", next(t, tl).Message)
	assert.Equal(t, "c", next(t, tl).Message)

	st := tl.Stats()
	assert.Equal(t, 1, st.ReadErrors)
	assert.Equal(t, 1, st.Recoveries)
	assert.Equal(t, 3, st.Emitted)
}

func TestRecoveryWithSharedTimestamps(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	s.Append(
		entry(100, "first"),
		memjournal.Entry(100, host, "other.service", "noise"),
		entry(100, "second"),
		entry(100, "third"),
	)

	assert.Equal(t, "first", next(t, tl).Message)

	s.FailNext(errors.New("EIO"))
	_, err := tl.Next(context.Background())
	require.ErrorIs(t, err, journal.ErrReadFailed)

	assert.Equal(t, "second", next(t, tl).Message)
	assert.Equal(t, "third", next(t, tl).Message)

	ctx, cancel := context.WithTimeout(context.Background(), 5*poll)
	defer cancel()
	_, err = tl.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	st := tl.Stats()
	assert.Equal(t, 3, st.Emitted)
	assert.Equal(t, 1, st.Recoveries)
}

func TestReadErrorBeforeFirstEmitReturnsToAnchor(t *testing.T) {
	s := memjournal.New()
	s.Append(entry(1, "history"))
	tl := open(t, s, cfg())

	s.Append(memjournal.Entry(2, host, "other.service", "skipped"), entry(3, "x"))
	s.FailNext(nil)
	s.FailNext(errors.New("EIO"))
	_, err := tl.Next(context.Background())
	assert.ErrorIs(t, err, journal.ErrReadFailed)

	assert.Equal(t, "x", next(t, tl).Message)
	assert.Equal(t, 1, tl.Stats().Emitted)
}

func TestFieldErrorIsReadError(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	s.Append(entry(1, "a"))
	s.FailField(errors.New("EBADMSG"))

	_, err := tl.Next(context.Background())
	assert.ErrorIs(t, err, journal.ErrReadFailed)
	assert.Equal(t, "a", next(t, tl).Message)
}

// stubbornCursor refuses SeekCursor while fail is set.
type stubbornCursor struct {
	journal.Cursor
	fail *atomic.Bool
}

func (c stubbornCursor) SeekCursor(token string) error {
	if c.fail.Load() {
		return errors.New("seek refused")
	}
	return c.Cursor.SeekCursor(token)
}

func TestFailedRecoveryWaitsOnePollInterval(t *testing.T) {
	mock := clock.NewMock()
	s := memjournal.New()
	var fail atomic.Bool
	opener := func(paths ...string) (journal.Cursor, error) {
		c, err := s.Open(paths...)
		if err != nil {
			return nil, err
		}
		return stubbornCursor{Cursor: c, fail: &fail}, nil
	}

	tl, err := New(cfg().WithPollInterval(time.Second), WithOpener(opener), WithClock(mock))
	require.NoError(t, err)
	defer tl.Close()

	s.Append(entry(1, "a"), entry(2, "b"))
	assert.Equal(t, "a", next(t, tl).Message)

	s.FailNext(errors.New("EIO"))
	_, err = tl.Next(context.Background())
	assert.ErrorIs(t, err, journal.ErrReadFailed)

	fail.Store(true)
	s.FailOpen(errors.New("gone"))
	_, err = tl.Next(context.Background())
	assert.ErrorIs(t, err, journal.ErrReadFailed)
	assert.ErrorIs(t, err, journal.ErrOpenFailed)

	fail.Store(false)
	s.FailOpen(nil)

	done := make(chan domain.Entry, 1)
	go func() {
		e, _ := tl.Next(context.Background())
		done <- e
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("recovery retried without waiting")
	default:
	}

	var got domain.Entry
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case got = <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "b", got.Message)
	assert.Equal(t, 2, tl.Stats().ReadErrors)
}

func TestResumeCursor(t *testing.T) {
	s := memjournal.New()
	s.Append(entry(1, "a"), entry(2, "b"), entry(3, "c"))
	tl := open(t, s, cfg().WithResumeCursor(s.Token(0)))

	tok, ok := tl.Resume()
	assert.True(t, ok)
	assert.Equal(t, s.Token(0), tok)
	assert.Equal(t, "b", next(t, tl).Message)
	assert.Equal(t, "c", next(t, tl).Message)
}

func TestResumeCursorUnknown(t *testing.T) {
	s := memjournal.New()
	_, err := New(cfg().WithResumeCursor("bogus"), WithOpener(memjournal.Dirs{dir: s}.Open))
	assert.ErrorIs(t, err, journal.ErrReadFailed)
	assert.Zero(t, s.OpenCursors())
}

func TestContextCancelWhileWaiting(t *testing.T) {
	tl := open(t, memjournal.New(), cfg())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := tl.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateWaiting, tl.State())
}

func TestCloseReleasesCursor(t *testing.T) {
	s := memjournal.New()
	tl, err := New(cfg(), WithOpener(memjournal.Dirs{dir: s}.Open))
	require.NoError(t, err)
	assert.Equal(t, 1, s.OpenCursors())

	require.NoError(t, tl.Close())
	require.NoError(t, tl.Close())
	assert.Zero(t, s.OpenCursors())
	assert.Equal(t, StateTerminal, tl.State())

	_, err = tl.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAll(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	s.Append(entry(1, "a"), entry(2, "b"), entry(3, "c"))

	var got []string
	for e, err := range tl.All(context.Background()) {
		require.NoError(t, err)
		got = append(got, e.Message)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	for e, err := range tl.All(ctx) {
		require.NoError(t, err)
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestAllYieldsReadErrors(t *testing.T) {
	s := memjournal.New()
	tl := open(t, s, cfg())
	s.Append(entry(1, "a"))
	s.FailNext(errors.New("EIO"))

	var errs int
	for e, err := range tl.All(context.Background()) {
		if err != nil {
			errs++
			continue
		}
		assert.Equal(t, "a", e.Message)
		break
	}
	assert.Equal(t, 1, errs)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "waiting", StateWaiting.String())
	assert.Equal(t, "terminal", StateTerminal.String())
}
