package study

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subjectcache "focuslog/internal/cache/subjects"
	"focuslog/internal/focus"
	"focuslog/internal/gateway/repository/ledger"
	"focuslog/internal/gateway/service/feed"
)

type memoryRows struct {
	mu   sync.Mutex
	rows []focus.FocusRow
}

func (m *memoryRows) Query(_ context.Context, f focus.RowFilter) ([]focus.FocusRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := focus.DayWindow{Today: f.OnOrAfter, Tomorrow: f.Before}
	var out []focus.FocusRow
	for _, r := range m.rows {
		if w.Contains(r.Day) && (f.Subject == "" || f.Subject == r.Subject) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRows) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			v := float64(fields[focus.FocusField].(int64))
			m.rows[i].Focus = &v
		}
	}
	return nil
}

type fakeSubjects struct{ calls int }

func (f *fakeSubjects) DatabaseID() string { return "db1" }
func (f *fakeSubjects) SubjectOptions(context.Context) ([]string, error) {
	f.calls++
	return []string{"Math", "English"}, nil
}

type failingLedger struct{}

func (failingLedger) Append(context.Context, ledger.Entry) error { return fmt.Errorf("ledger down") }
func (failingLedger) ListByDay(context.Context, string) ([]ledger.Entry, error) {
	return nil, fmt.Errorf("ledger down")
}

func seoulClock() func() time.Time {
	// 2024-03-01T16:30Z is 2024-03-02T01:30 in Seoul.
	return func() time.Time { return time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC) }
}

func newTestService(t *testing.T, led ledger.Store, hub *feed.Hub) (*Service, *memoryRows) {
	t.Helper()
	base := 20.0
	rows := &memoryRows{rows: []focus.FocusRow{
		{ID: "r-prev", Day: "2024-03-01", Subject: "Math", Focus: &base},
		{ID: "r-math", Day: "2024-03-02", Subject: "Math", Focus: &base},
	}}
	acc := focus.NewStoreAccumulator(rows, focus.MatchClientSide)
	svc := New(Deps{
		Accumulator:  acc,
		Days:         acc,
		Subjects:     &fakeSubjects{},
		SubjectCache: subjectcache.NewCache(subjectcache.DefaultCacheConfig()),
		Ledger:       led,
		Feed:         hub,
		Now:          seoulClock(),
	})
	return svc, rows
}

func TestSave_UsesSeoulDayAndRecordsLedgerAndFeed(t *testing.T) {
	led := ledger.NewMemoryStore()
	hub := feed.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := hub.Subscribe(ctx)
	svc, _ := newTestService(t, led, hub)

	res, err := svc.Save(context.Background(), map[string]any{"subject": "Math", "minutes": 7.9})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.SavedMinutes)
	assert.Equal(t, int64(27), res.NewFocus)
	assert.Equal(t, "r-math", res.RowID)
	assert.Equal(t, "2024-03-02", res.Day)

	day, entries, err := svc.History(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", day)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(27), entries[0].NewFocus)

	select {
	case ev := <-events:
		assert.Equal(t, feed.EventAccumulated, ev.Type)
		assert.Equal(t, int64(27), ev.NewFocus)
	case <-time.After(time.Second):
		t.Fatal("no feed event")
	}
}

func TestSave_ValidationStopsBeforeStore(t *testing.T) {
	svc, rows := newTestService(t, nil, nil)
	_, err := svc.Save(context.Background(), map[string]any{"subject": "Math", "minutes": "10"})
	require.ErrorIs(t, err, focus.ErrInvalidMinutes)
	assert.Equal(t, 20.0, *rows.rows[1].Focus)
}

func TestSave_LedgerFailureDoesNotFailSave(t *testing.T) {
	svc, rows := newTestService(t, failingLedger{}, nil)
	res, err := svc.Save(context.Background(), map[string]any{"subject": "Math", "minutes": 5.0})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.NewFocus)
	assert.Equal(t, 25.0, *rows.rows[1].Focus)
}

func TestSave_SubjectMissingToday(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	_, err := svc.Save(context.Background(), map[string]any{"subject": "Biology", "minutes": 5.0})
	var nfErr *focus.NotFoundError
	require.True(t, errors.As(err, &nfErr))
	assert.Equal(t, []string{"Math"}, nfErr.AvailableSubjects)
}

func TestToday(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	window, rows, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", window.Today)
	assert.Equal(t, []TodayRow{{ID: "r-math", Subject: "Math", Focus: 20}}, rows)
}

func TestSubjectsAreCached(t *testing.T) {
	src := &fakeSubjects{}
	svc := New(Deps{Subjects: src, SubjectCache: subjectcache.NewCache(subjectcache.DefaultCacheConfig())})
	for i := 0; i < 3; i++ {
		got, err := svc.Subjects(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Math", "English"}, got)
	}
	assert.Equal(t, 1, src.calls)
}

func TestHistory_RejectsBadDay(t *testing.T) {
	svc, _ := newTestService(t, ledger.NewMemoryStore(), nil)
	_, _, err := svc.History(context.Background(), "March 1st")
	require.ErrorIs(t, err, ErrInvalidDay)
	assert.Equal(t, 400, focus.StatusCode(err))
}
