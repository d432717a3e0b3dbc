package focus

import (
	"context"
	"math"
	"strings"
)

// FocusRow is one day/subject record owned by the remote store.
type FocusRow struct {
	ID      string
	Day     string
	Subject string
	// Focus is nil when the store had no usable numeric value.
	Focus *float64
}

// CurrentFocus returns the accumulated minutes. An absent, non-finite,
// negative or out-of-range counter is corrupt and counts as a base of 0.
func (r FocusRow) CurrentFocus() int64 {
	if r.Focus == nil {
		return 0
	}
	f := *r.Focus
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > maxMinutes {
		return 0
	}
	return int64(math.Trunc(f))
}

// RowFilter selects rows whose day lies in [OnOrAfter, Before). Subject is an
// optional equality filter applied by the store.
type RowFilter struct {
	OnOrAfter string
	Before    string
	Subject   string
	// Limit caps the number of rows returned; 0 means all.
	Limit int
}

// RecordStore is the remote store: query-by-filter and patch-by-id.
type RecordStore interface {
	// Query returns matching rows in the store's response order.
	Query(ctx context.Context, filter RowFilter) ([]FocusRow, error)
	// UpdateFields patches exactly the named fields of one row.
	UpdateFields(ctx context.Context, rowID string, fields map[string]any) error
}

func normalizeSubject(s string) string {
	return strings.TrimSpace(s)
}
