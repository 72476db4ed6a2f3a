package wear

import (
	"math"
	"time"

	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/timeutil"
)

// RemainingDays returns the whole days of wear left. ok is false when the lens
// has no opened date. For daily lenses days are a coarse flag: 1 while wearable
// today, 0 once expired.
func RemainingDays(lens model.Lens, now time.Time) (int, bool) {
	if lens.OpenedDate == "" {
		return 0, false
	}
	if lens.WearPeriodDays == 1 {
		if IsExpired(lens, now) {
			return 0, true
		}
		return 1, true
	}

	usedDays := int(TotalUsage(lens, now) / day)
	remaining := lens.WearPeriodDays - usedDays
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// RemainingHours returns the hours left, rounded up. For daily lenses that is
// the time until local end of the opening day; for multi-day lenses the
// unworn remainder of the current usage day, or 0 once no days remain.
func RemainingHours(lens model.Lens, now time.Time) (int, bool) {
	if lens.OpenedDate == "" {
		return 0, false
	}

	if lens.WearPeriodDays == 1 {
		opened, ok := parseStamp(lens.OpenedDate)
		if !ok {
			return 0, false
		}
		if IsExpired(lens, now) {
			return 0, true
		}
		endOfDay := timeutil.EndOfLocalDay(opened.In(now.Location()))
		remaining := endOfDay.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		return ceilHours(remaining), true
	}

	total := TotalUsage(lens, now)
	usedDays := int(total / day)
	usedIntoDay := total - time.Duration(usedDays)*day
	remainingDays := lens.WearPeriodDays - usedDays
	if remainingDays <= 0 {
		return 0, true
	}
	return ceilHours(day - usedIntoDay), true
}

func ceilHours(d time.Duration) int {
	return int(math.Ceil(d.Hours()))
}
