package wear_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/wear"
)

func TestIsExpiredDaily(t *testing.T) {
	opened := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	lens := model.Lens{
		Status:         model.StatusTakenOff,
		WearPeriodDays: 1,
		OpenedDate:     iso(opened),
	}

	t.Run("same calendar day", func(t *testing.T) {
		require.False(t, wear.IsExpired(lens, time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)))
	})

	t.Run("any later calendar day", func(t *testing.T) {
		require.True(t, wear.IsExpired(lens, time.Date(2025, 1, 2, 0, 0, 1, 0, time.UTC)))
	})

	t.Run("worn briefly still expires at midnight", func(t *testing.T) {
		brief := lens
		brief.AccumulatedUsageMs = int64(3 * time.Hour / time.Millisecond)
		require.True(t, wear.IsExpired(brief, time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("expired status overrides same-day", func(t *testing.T) {
		terminal := lens
		terminal.Status = model.StatusExpired
		require.True(t, wear.IsExpired(terminal, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))
	})
}

func TestIsExpiredMultiDay(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never opened", func(t *testing.T) {
		lens := model.Lens{Status: model.StatusUnopened, WearPeriodDays: 14}
		require.False(t, wear.IsExpired(lens, now))
	})

	t.Run("usage below threshold", func(t *testing.T) {
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now),
			AccumulatedUsageMs: int64(14*24*time.Hour/time.Millisecond) - 1,
		}
		require.False(t, wear.IsExpired(lens, now))
	})

	t.Run("usage at threshold", func(t *testing.T) {
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now),
			AccumulatedUsageMs: int64(14 * 24 * time.Hour / time.Millisecond),
		}
		require.True(t, wear.IsExpired(lens, now))
	})

	t.Run("dormant lens ages out by calendar", func(t *testing.T) {
		// Two-week lens worn 8h/day for 14 days: only 112 worn hours, but the
		// 14 elapsed calendar days consume the whole wear period.
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now.AddDate(0, 0, -14)),
			AccumulatedUsageMs: int64(112 * time.Hour / time.Millisecond),
		}
		require.True(t, wear.IsExpired(lens, now))
	})

	t.Run("expired status terminal", func(t *testing.T) {
		lens := model.Lens{
			Status:         model.StatusExpired,
			WearPeriodDays: 30,
			OpenedDate:     iso(now),
		}
		require.True(t, wear.IsExpired(lens, now))
	})
}
