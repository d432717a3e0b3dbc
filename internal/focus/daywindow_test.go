package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDayWindow_CrossesUTCDayBoundary(t *testing.T) {
	// 16:30 UTC is 01:30 the next day in Seoul.
	now := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	got := ResolveDayWindow(now)
	assert.Equal(t, DayWindow{Today: "2024-03-02", Tomorrow: "2024-03-03"}, got)
	assert.True(t, got.Contains("2024-03-02"))
	assert.False(t, got.Contains("2024-03-01"))
}

func TestResolveDayWindow_CivilDayEdges(t *testing.T) {
	day := "2024-03-01"
	cases := []struct {
		name  string
		now   time.Time
		match bool
	}{
		{"local midnight", time.Date(2024, 3, 1, 0, 0, 0, 0, Location()), true},
		{"local noon", time.Date(2024, 3, 1, 12, 0, 0, 0, Location()), true},
		{"last second", time.Date(2024, 3, 1, 23, 59, 59, 0, Location()), true},
		{"one second before", time.Date(2024, 2, 29, 23, 59, 59, 0, Location()), false},
		{"next local midnight", time.Date(2024, 3, 2, 0, 0, 0, 0, Location()), false},
		// 2024-02-29T15:00Z is 2024-03-01T00:00 in Seoul.
		{"utc previous day", time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), true},
		{"utc same day late", time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.match, ResolveDayWindow(tc.now).Contains(day))
		})
	}
}

func TestResolveDayWindow_IgnoresHostZone(t *testing.T) {
	instant := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC)
	la := time.FixedZone("PST", -8*60*60)
	assert.Equal(t, ResolveDayWindow(instant), ResolveDayWindow(instant.In(la)))
	assert.Equal(t, DayWindow{Today: "2025-01-01", Tomorrow: "2025-01-02"}, ResolveDayWindow(instant))
}

func TestDayWindowContains_DateTimeEncodings(t *testing.T) {
	w := DayWindow{Today: "2024-03-01", Tomorrow: "2024-03-02"}
	assert.True(t, w.Contains("2024-03-01T00:00:00.000+09:00"))
	assert.True(t, w.Contains("2024-02-29T15:00:00Z"))
	assert.False(t, w.Contains("2024-03-02T00:00:00+09:00"))
	assert.False(t, w.Contains("2024-02-29T14:59:59Z"))
	assert.False(t, w.Contains(""))
	assert.False(t, w.Contains("yesterday"))
}
