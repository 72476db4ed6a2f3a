// Package timeutil holds the local-calendar helpers the wear engine is built
// on. All functions are pure and operate in the time zone of their arguments.
package timeutil

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned by ParseDate for a non-empty input that does not
// parse to a valid timestamp.
var ErrInvalidDate = errors.New("invalid date")

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ParseDate converts an ISO-8601 string to a time. An empty input returns
// ok=false with no error; a non-empty input that cannot be parsed returns
// ErrInvalidDate. This is the single parsing contract for API boundaries;
// persisted fields read by the wear calculators go through the non-erroring
// path instead.
func ParseDate(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// StartOfLocalDay returns 00:00:00.000 on t's calendar day, in t's location.
func StartOfLocalDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfLocalDay returns 23:59:59.999 on t's calendar day, in t's location.
func EndOfLocalDay(t time.Time) time.Time {
	return StartOfLocalDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// SameLocalDay reports whether a and b fall on the same calendar day when both
// are viewed in a's location.
func SameLocalDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
