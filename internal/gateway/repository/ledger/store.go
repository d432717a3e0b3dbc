package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"focuslog/internal/focus"
)

// Entry records one successful accumulation.
type Entry struct {
	ID           string    `json:"id"`
	Day          string    `json:"day"`
	Subject      string    `json:"subject"`
	RowID        string    `json:"row_id"`
	SavedMinutes int64     `json:"saved_minutes"`
	NewFocus     int64     `json:"new_focus"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Store defines operations for persisting accumulation history.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByDay(ctx context.Context, day string) ([]Entry, error)
}

// NewEntry builds an entry for res recorded at now.
func NewEntry(res focus.AccumulateResult, now time.Time) Entry {
	return Entry{
		ID:           uuid.NewString(),
		Day:          res.Day,
		Subject:      res.Subject,
		RowID:        res.RowID,
		SavedMinutes: res.SavedMinutes,
		NewFocus:     res.NewFocus,
		RecordedAt:   now.UTC(),
	}
}

func validateEntry(e Entry) (Entry, error) {
	e.Day = strings.TrimSpace(e.Day)
	e.Subject = strings.TrimSpace(e.Subject)
	if e.Day == "" {
		return e, fmt.Errorf("day is required")
	}
	if _, err := time.Parse(focus.DateLayout, e.Day); err != nil {
		return e, fmt.Errorf("day must be yyyy-mm-dd: %w", err)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	return e, nil
}

func validateDay(day string) (string, error) {
	day = strings.TrimSpace(day)
	if _, err := time.Parse(focus.DateLayout, day); err != nil {
		return "", fmt.Errorf("day must be yyyy-mm-dd: %w", err)
	}
	return day, nil
}
