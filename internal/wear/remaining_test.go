package wear_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/wear"
)

func TestRemainingDays(t *testing.T) {
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	t.Run("no opened date", func(t *testing.T) {
		lens := model.Lens{Status: model.StatusUnopened, WearPeriodDays: 14}
		_, ok := wear.RemainingDays(lens, now)
		require.False(t, ok)
	})

	t.Run("daily wearable today", func(t *testing.T) {
		lens := model.Lens{Status: model.StatusInUse, WearPeriodDays: 1, OpenedDate: iso(now), LastResumedAt: iso(now)}
		days, ok := wear.RemainingDays(lens, now)
		require.True(t, ok)
		require.Equal(t, 1, days)
	})

	t.Run("daily expired", func(t *testing.T) {
		lens := model.Lens{Status: model.StatusTakenOff, WearPeriodDays: 1, OpenedDate: iso(now.AddDate(0, 0, -1))}
		days, ok := wear.RemainingDays(lens, now)
		require.True(t, ok)
		require.Equal(t, 0, days)
	})

	t.Run("multi-day consumed plus remaining never exceeds period", func(t *testing.T) {
		for _, wornHours := range []int{0, 8, 23, 24, 100, 14 * 24, 20 * 24} {
			lens := model.Lens{
				Status:             model.StatusTakenOff,
				WearPeriodDays:     14,
				OpenedDate:         iso(now),
				AccumulatedUsageMs: int64(time.Duration(wornHours) * time.Hour / time.Millisecond),
			}
			days, ok := wear.RemainingDays(lens, now)
			require.True(t, ok)
			require.GreaterOrEqual(t, days, 0)
			consumed := wornHours / 24
			if consumed > 14 {
				consumed = 14
			}
			require.LessOrEqual(t, days+consumed, 14, "worn %dh", wornHours)
		}
	})
}

func TestRemainingHours(t *testing.T) {
	t.Run("no opened date", func(t *testing.T) {
		now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
		lens := model.Lens{Status: model.StatusUnopened, WearPeriodDays: 1}
		_, ok := wear.RemainingHours(lens, now)
		require.False(t, ok)
	})

	t.Run("daily until end of local day rounded up", func(t *testing.T) {
		now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
		lens := model.Lens{Status: model.StatusInUse, WearPeriodDays: 1, OpenedDate: iso(now.Add(-time.Hour)), LastResumedAt: iso(now.Add(-time.Hour))}
		hours, ok := wear.RemainingHours(lens, now)
		require.True(t, ok)
		require.Equal(t, 16, hours)
	})

	t.Run("daily expired", func(t *testing.T) {
		now := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
		lens := model.Lens{Status: model.StatusTakenOff, WearPeriodDays: 1, OpenedDate: iso(now.AddDate(0, 0, -1))}
		hours, ok := wear.RemainingHours(lens, now)
		require.True(t, ok)
		require.Equal(t, 0, hours)
	})

	t.Run("multi-day remainder of current usage day", func(t *testing.T) {
		now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now),
			AccumulatedUsageMs: int64((3*24 + 20) * time.Hour / time.Millisecond),
		}
		hours, ok := wear.RemainingHours(lens, now)
		require.True(t, ok)
		require.Equal(t, 4, hours)
	})

	t.Run("multi-day exhausted", func(t *testing.T) {
		now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now),
			AccumulatedUsageMs: int64(14 * 24 * time.Hour / time.Millisecond),
		}
		hours, ok := wear.RemainingHours(lens, now)
		require.True(t, ok)
		require.Equal(t, 0, hours)
	})
}
