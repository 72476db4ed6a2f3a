package wear

import (
	"time"

	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/timeutil"
)

// IsExpired reports whether the lens has exceeded its allowed wear period.
// A lens that was never opened is not expired. Daily lenses expire strictly by
// local calendar day: any now on a day other than the opening day expires
// them, regardless of worn milliseconds. Multi-day lenses expire once their
// excess-adjusted usage reaches WearPeriodDays. StatusExpired is terminal and
// overrides the computed time.
func IsExpired(lens model.Lens, now time.Time) bool {
	opened, ok := parseStamp(lens.OpenedDate)
	if !ok {
		return false
	}

	if lens.WearPeriodDays == 1 {
		return !timeutil.SameLocalDay(opened.In(now.Location()), now) ||
			lens.Status == model.StatusExpired
	}

	usageDays := int(TotalUsageWithExcessDeduction(lens, now) / day)
	return usageDays >= lens.WearPeriodDays || lens.Status == model.StatusExpired
}
