package focus

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FocusField is the store field holding accumulated minutes.
const FocusField = "focus"

// MatchStrategy selects where the subject filter runs.
type MatchStrategy string

const (
	// MatchClientSide fetches every row of the day and matches locally.
	MatchClientSide MatchStrategy = "client"
	// MatchServerSide pushes the subject equality filter into the query.
	MatchServerSide MatchStrategy = "server"
)

func ParseMatchStrategy(s string) (MatchStrategy, error) {
	switch MatchStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchClientSide:
		return MatchClientSide, nil
	case MatchServerSide:
		return MatchServerSide, nil
	default:
		return "", fmt.Errorf("unknown match strategy %q", s)
	}
}

// AccumulateResult is returned after a successful write.
type AccumulateResult struct {
	SavedMinutes int64  `json:"saved_minutes"`
	NewFocus     int64  `json:"new_focus"`
	RowID        string `json:"row_id,omitempty"`
	Day          string `json:"day,omitempty"`
	Subject      string `json:"subject,omitempty"`
}

// Accumulator adds whole minutes to the row of subject inside window.
//
// Implementations over stores without conditional updates perform a read and
// a write as two round trips; concurrent calls for the same row can lose one
// delta. A store offering compare-and-swap can be slotted in behind this
// interface without changing callers.
type Accumulator interface {
	Accumulate(ctx context.Context, window DayWindow, subject string, wholeMinutes int64) (AccumulateResult, error)
}

// StoreAccumulator implements Accumulator with read-then-write over a RecordStore.
type StoreAccumulator struct {
	store    RecordStore
	strategy MatchStrategy
}

func NewStoreAccumulator(store RecordStore, strategy MatchStrategy) *StoreAccumulator {
	if strategy == "" {
		strategy = MatchClientSide
	}
	return &StoreAccumulator{store: store, strategy: strategy}
}

func (a *StoreAccumulator) Accumulate(ctx context.Context, window DayWindow, subject string, wholeMinutes int64) (AccumulateResult, error) {
	if a == nil || a.store == nil {
		return AccumulateResult{}, errors.New("accumulator has no store")
	}
	if wholeMinutes < 0 || wholeMinutes > maxMinutes {
		return AccumulateResult{}, &ValidationError{Field: "minutes", Err: ErrInvalidMinutes}
	}
	row, err := a.Locate(ctx, window, subject)
	if err != nil {
		return AccumulateResult{}, err
	}

	// Both terms are within [0, maxMinutes], so the sum cannot overflow.
	newFocus := row.CurrentFocus() + wholeMinutes
	if err := a.store.UpdateFields(ctx, row.ID, map[string]any{FocusField: newFocus}); err != nil {
		return AccumulateResult{}, remoteErr("update", err)
	}
	return AccumulateResult{
		SavedMinutes: wholeMinutes,
		NewFocus:     newFocus,
		RowID:        row.ID,
		Day:          window.Today,
		Subject:      row.Subject,
	}, nil
}

// Locate finds the row of subject for the day window using the configured
// strategy. Both strategies report the same errors.
func (a *StoreAccumulator) Locate(ctx context.Context, window DayWindow, subject string) (FocusRow, error) {
	if a.strategy == MatchServerSide {
		rows, err := a.store.Query(ctx, RowFilter{
			OnOrAfter: window.Today,
			Before:    window.Tomorrow,
			Subject:   normalizeSubject(subject),
		})
		if err != nil {
			return FocusRow{}, remoteErr("query", err)
		}
		if row, ok := MatchRow(inWindow(rows, window), subject); ok {
			return row, nil
		}
	}

	rows, err := a.DayRows(ctx, window)
	if err != nil {
		return FocusRow{}, err
	}
	if len(rows) == 0 {
		return FocusRow{}, &NotFoundError{Err: ErrNoRowsToday, Day: window.Today, Subject: subject}
	}
	row, ok := MatchRow(rows, subject)
	if !ok {
		return FocusRow{}, &NotFoundError{
			Err:               ErrSubjectRowNotFound,
			Day:               window.Today,
			Subject:           subject,
			AvailableSubjects: SubjectsOf(rows),
		}
	}
	return row, nil
}

// DayRows returns every row whose day lies in window, in store order. Rows
// the store returned outside the window are dropped.
func (a *StoreAccumulator) DayRows(ctx context.Context, window DayWindow) ([]FocusRow, error) {
	rows, err := a.store.Query(ctx, RowFilter{OnOrAfter: window.Today, Before: window.Tomorrow})
	if err != nil {
		return nil, remoteErr("query", err)
	}
	return inWindow(rows, window), nil
}

func inWindow(rows []FocusRow, window DayWindow) []FocusRow {
	out := rows[:0:0]
	for _, r := range rows {
		if window.Contains(r.Day) {
			out = append(out, r)
		}
	}
	return out
}

// MatchRow picks the row for subject. An exact trimmed match wins over a
// case-insensitive one; among equals the first in response order is chosen.
func MatchRow(rows []FocusRow, subject string) (FocusRow, bool) {
	want := normalizeSubject(subject)
	if want == "" {
		return FocusRow{}, false
	}
	for _, r := range rows {
		if normalizeSubject(r.Subject) == want {
			return r, true
		}
	}
	for _, r := range rows {
		if strings.EqualFold(normalizeSubject(r.Subject), want) {
			return r, true
		}
	}
	return FocusRow{}, false
}

// SubjectsOf lists the distinct non-empty subjects of rows in response order.
func SubjectsOf(rows []FocusRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		s := normalizeSubject(r.Subject)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func remoteErr(op string, err error) error {
	var rsErr *RemoteStoreError
	if errors.As(err, &rsErr) {
		if rsErr.Op == "" {
			rsErr.Op = op
		}
		return rsErr
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr
	}
	return &RemoteStoreError{Op: op, Err: err}
}
