package wear

import (
	"time"

	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/timeutil"
)

// TotalUsage returns the lens's accumulated wear time as of now: the persisted
// accumulator plus, for an in-use lens, the open session since LastResumedAt.
// A LastResumedAt in the future contributes zero, not negative time.
func TotalUsage(lens model.Lens, now time.Time) time.Duration {
	accumulated := time.Duration(lens.AccumulatedUsageMs) * time.Millisecond
	if accumulated < 0 {
		accumulated = 0
	}

	var session time.Duration
	if lens.Status == model.StatusInUse {
		if resumed, ok := parseStamp(lens.LastResumedAt); ok {
			if elapsed := now.Sub(resumed); elapsed > 0 {
				session = elapsed
			}
		}
	}
	return accumulated + session
}

// TotalUsageWithExcessDeduction is TotalUsage adjusted for multi-day lenses:
// calendar days since OpenedDate on which the lens was not worn a full day
// still count toward expiry. The adjusted total is capped at the wall-clock
// span since opening. Daily lenses and lenses without a parseable OpenedDate
// are returned unadjusted.
func TotalUsageWithExcessDeduction(lens model.Lens, now time.Time) time.Duration {
	total := TotalUsage(lens, now)
	if lens.WearPeriodDays <= 1 {
		return total
	}
	opened, ok := parseStamp(lens.OpenedDate)
	if !ok {
		return total
	}

	span := now.Sub(opened)
	if span <= 0 {
		return total
	}

	// Whole local calendar days between the opening day and today. Rounding
	// absorbs DST shifts in the boundary difference.
	opened = opened.In(now.Location())
	boundaries := timeutil.StartOfLocalDay(now).Sub(timeutil.StartOfLocalDay(opened))
	calendarDays := int(boundaries.Round(day) / day)

	wornDays := int(total / day)
	excess := calendarDays - wornDays
	if excess <= 0 {
		return total
	}

	adjusted := total + time.Duration(excess)*day
	if adjusted > span {
		adjusted = span
	}
	return adjusted
}
