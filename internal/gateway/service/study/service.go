package study

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	subjectcache "focuslog/internal/cache/subjects"
	"focuslog/internal/focus"
	"focuslog/internal/gateway/repository/ledger"
	"focuslog/internal/gateway/service/feed"
)

var ErrInvalidDay = errors.New("invalid day")

// SubjectSource lists the closed set of subjects the store allows.
type SubjectSource interface {
	DatabaseID() string
	SubjectOptions(ctx context.Context) ([]string, error)
}

// DayLister lists every row of a day window.
type DayLister interface {
	DayRows(ctx context.Context, window focus.DayWindow) ([]focus.FocusRow, error)
}

// Deps are the collaborators of Service. Ledger, Feed, Subjects and
// SubjectCache are optional.
type Deps struct {
	Accumulator  focus.Accumulator
	Days         DayLister
	Subjects     SubjectSource
	SubjectCache *subjectcache.Cache
	Ledger       ledger.Store
	Feed         *feed.Hub
	Now          func() time.Time
}

type Service struct {
	acc      focus.Accumulator
	days     DayLister
	subjects SubjectSource
	cache    *subjectcache.Cache
	ledger   ledger.Store
	feed     *feed.Hub
	now      func() time.Time
}

func New(deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		acc:      deps.Accumulator,
		days:     deps.Days,
		subjects: deps.Subjects,
		cache:    deps.SubjectCache,
		ledger:   deps.Ledger,
		feed:     deps.Feed,
		now:      now,
	}
}

// Save validates payload and adds its whole minutes to today's row.
//
// The ledger and feed are written only after the store update succeeded.
// Their failures are logged; the update already happened and is reported
// as saved.
func (s *Service) Save(ctx context.Context, payload map[string]any) (focus.AccumulateResult, error) {
	req, err := focus.Validate(payload)
	if err != nil {
		return focus.AccumulateResult{}, err
	}
	if s.acc == nil {
		return focus.AccumulateResult{}, fmt.Errorf("study service has no accumulator")
	}
	now := s.now()
	window := focus.ResolveDayWindow(now)

	res, err := s.acc.Accumulate(ctx, window, req.Subject, req.WholeMinutes())
	if err != nil {
		return focus.AccumulateResult{}, err
	}
	if res.Day == "" {
		res.Day = window.Today
	}
	if res.Subject == "" {
		res.Subject = req.Subject
	}
	log.Printf("focus saved: day=%s subject=%q saved=%d new_focus=%d row=%s", res.Day, res.Subject, res.SavedMinutes, res.NewFocus, res.RowID)

	if s.ledger != nil {
		if err := s.ledger.Append(context.WithoutCancel(ctx), ledger.NewEntry(res, now)); err != nil {
			log.Printf("focus ledger append failed: day=%s subject=%q err=%v", res.Day, res.Subject, err)
		}
	}
	s.feed.Publish(feed.Event{
		Type:         feed.EventAccumulated,
		Day:          res.Day,
		Subject:      res.Subject,
		SavedMinutes: res.SavedMinutes,
		NewFocus:     res.NewFocus,
		At:           now.UTC(),
	})
	return res, nil
}

// TodayRow is a row summary for the current civil day.
type TodayRow struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Focus   int64  `json:"focus"`
}

// Today lists the rows of the current civil day in store order.
func (s *Service) Today(ctx context.Context) (focus.DayWindow, []TodayRow, error) {
	window := focus.ResolveDayWindow(s.now())
	if s.days == nil {
		return window, nil, fmt.Errorf("study service has no day lister")
	}
	rows, err := s.days.DayRows(ctx, window)
	if err != nil {
		return window, nil, err
	}
	out := make([]TodayRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, TodayRow{ID: r.ID, Subject: r.Subject, Focus: r.CurrentFocus()})
	}
	return window, out, nil
}

// Subjects returns the allowed subject values, cached when a cache is set.
func (s *Service) Subjects(ctx context.Context) ([]string, error) {
	if s.subjects == nil {
		return nil, fmt.Errorf("study service has no subject source")
	}
	if s.cache == nil {
		return s.subjects.SubjectOptions(ctx)
	}
	return s.cache.Get(ctx, s.subjects.DatabaseID(), s.subjects.SubjectOptions)
}

// History lists ledger entries of day; an empty day means today.
func (s *Service) History(ctx context.Context, day string) (string, []ledger.Entry, error) {
	if day == "" {
		day = focus.ResolveDayWindow(s.now()).Today
	}
	if _, err := time.Parse(focus.DateLayout, day); err != nil {
		return day, nil, &focus.ValidationError{Field: "day", Err: ErrInvalidDay}
	}
	if s.ledger == nil {
		return day, nil, nil
	}
	entries, err := s.ledger.ListByDay(ctx, day)
	if err != nil {
		return day, nil, err
	}
	return day, entries, nil
}
