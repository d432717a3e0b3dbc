package notion

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// parseRetryAfter reads the Retry-After header Notion sends with 429
// rate_limited responses. Both delta-seconds and HTTP-date forms are accepted.
func parseRetryAfter(h http.Header) time.Duration {
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
