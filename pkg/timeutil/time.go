package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// OrNow returns t in UTC, or the current UTC time when t is zero
func OrNow(t time.Time) time.Time {
	if t.IsZero() {
		return Now()
	}
	return t.UTC()
}

// RFC3339 formats t in UTC for provider and event payloads
func RFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
