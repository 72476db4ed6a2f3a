// Package wear computes derived wear-time state for a lens: total usage,
// expiration, and remaining days/hours. Every function is pure and takes the
// caller's notion of now, so one timestamp is shared across a whole state
// transition.
//
// Persisted timing fields can be corrupt (malformed strings, negative
// accumulators). The calculators never fail on them; a value that does not
// parse contributes zero time.
package wear

import (
	"time"

	"lenstrack/backend/internal/timeutil"
)

const day = 24 * time.Hour

// parseStamp reads a persisted timestamp field, swallowing parse failures.
func parseStamp(s string) (time.Time, bool) {
	t, ok, err := timeutil.ParseDate(s)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return t, true
}
