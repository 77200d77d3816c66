// Package timeutil provides pure helpers for ISO timestamp formatting,
// duration computation, and relative-time display. Every function that
// depends on "now" takes it as a parameter so tests are deterministic.
package timeutil

import (
	"fmt"
	"time"
)

// FormatISO renders t as an RFC 3339 UTC timestamp.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseISO parses an RFC 3339 timestamp.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// DurationSeconds returns the whole-second duration between started and
// ended, floored. Negative spans clamp to 0 so a derived duration is
// never negative.
func DurationSeconds(started, ended time.Time) int64 {
	secs := int64(ended.Sub(started) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// FormatDuration renders a second count as a compact human string,
// e.g. "45s", "2m5s", "1h3m".
func FormatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Relative renders t relative to now: "just now", "5m ago", "2h ago",
// "3d ago", or the date for anything older than a week. Future
// timestamps render as "just now".
func Relative(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// RelativeNow is Relative against the current time.
func RelativeNow(t time.Time) string {
	return Relative(t, time.Now())
}
