package model

import "time"

// Status is the lifecycle state of a lens. Exactly one lens per user may be
// StatusInUse at a time.
type Status string

const (
	StatusUnopened Status = "unopened"
	StatusOpened   Status = "opened"
	StatusInUse    Status = "in-use"
	StatusTakenOff Status = "taken-off"
	StatusExpired  Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnopened, StatusOpened, StatusInUse, StatusTakenOff, StatusExpired:
		return true
	}
	return false
}

const (
	WearPeriodTitleDaily   = "daily"
	WearPeriodTitleTwoWeek = "two-week"
	WearPeriodTitleMonthly = "monthly"
)

var wearPeriodDaysByTitle = map[string]int{
	WearPeriodTitleDaily:   1,
	WearPeriodTitleTwoWeek: 14,
	WearPeriodTitleMonthly: 30,
}

// WearPeriodDaysForTitle maps a wear-period class to its allowed span in days.
func WearPeriodDaysForTitle(title string) (int, bool) {
	days, ok := wearPeriodDaysByTitle[title]
	return days, ok
}

// Lens is a physical lens unit tracked by one user. The nullable timestamps
// (OpenedDate, DiscardDate, LastResumedAt) are kept as raw ISO-8601 strings
// with "" meaning absent, so that corrupt historical rows reach the wear
// calculators, which normalize them, instead of failing at scan time.
type Lens struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Manufacturer       string    `json:"manufacturer"`
	Brand              string    `json:"brand"`
	WearPeriodTitle    string    `json:"wearPeriodTitle"`
	WearPeriodDays     int       `json:"wearPeriodDays"`
	UsagePeriodDays    int       `json:"usagePeriodDays"`
	DiscardDate        string    `json:"discardDate,omitempty"`
	Status             Status    `json:"status"`
	OpenedDate         string    `json:"openedDate,omitempty"`
	Sphere             string    `json:"sphere"`
	BaseCurveRadius    string    `json:"baseCurveRadius"`
	AccumulatedUsageMs int64     `json:"accumulatedUsageMs"`
	LastResumedAt      string    `json:"lastResumedAt,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
