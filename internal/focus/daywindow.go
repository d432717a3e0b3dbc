package focus

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

const (
	// ZoneName is the civil zone every day window is computed in.
	ZoneName   = "Asia/Seoul"
	DateLayout = "2006-01-02"
)

var (
	zoneOnce sync.Once
	zone     *time.Location
)

// Location returns the fixed civil zone. Korea observes no DST, so a +09:00
// fixed zone is an exact fallback if the zone database cannot be read.
func Location() *time.Location {
	zoneOnce.Do(func() {
		loc, err := time.LoadLocation(ZoneName)
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
		zone = loc
	})
	return zone
}

// DayWindow is the half-open civil-day interval [Today, Tomorrow).
type DayWindow struct {
	Today    string `json:"today"`
	Tomorrow string `json:"tomorrow"`
}

// ResolveDayWindow converts now into the civil day it falls on in the fixed zone.
func ResolveDayWindow(now time.Time) DayWindow {
	local := now.In(Location())
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, Location())
	return DayWindow{
		Today:    start.Format(DateLayout),
		Tomorrow: start.AddDate(0, 0, 1).Format(DateLayout),
	}
}

// Contains reports whether a stored day value lies inside the window. Bare
// dates are compared as civil dates; date-times are first moved into the
// fixed zone.
func (w DayWindow) Contains(day string) bool {
	civil, ok := civilDate(day)
	if !ok {
		return false
	}
	return civil >= w.Today && civil < w.Tomorrow
}

func civilDate(day string) (string, bool) {
	day = strings.TrimSpace(day)
	if day == "" {
		return "", false
	}
	if t, err := time.Parse(time.RFC3339Nano, day); err == nil {
		return t.In(Location()).Format(DateLayout), true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.000", day, Location()); err == nil {
		return t.Format(DateLayout), true
	}
	if t, err := time.ParseInLocation(DateLayout, day, Location()); err == nil {
		return t.Format(DateLayout), true
	}
	return "", false
}
