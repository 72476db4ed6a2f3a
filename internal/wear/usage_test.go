package wear_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/wear"
)

func iso(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func TestTotalUsage(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		lens model.Lens
		want time.Duration
	}{
		{
			name: "not in use ignores stale last resume",
			lens: model.Lens{
				Status:             model.StatusTakenOff,
				AccumulatedUsageMs: int64(3 * time.Hour / time.Millisecond),
				LastResumedAt:      iso(now.Add(-2 * time.Hour)),
			},
			want: 3 * time.Hour,
		},
		{
			name: "in use adds open session",
			lens: model.Lens{
				Status:             model.StatusInUse,
				AccumulatedUsageMs: int64(3 * time.Hour / time.Millisecond),
				LastResumedAt:      iso(now.Add(-90 * time.Minute)),
			},
			want: 3*time.Hour + 90*time.Minute,
		},
		{
			name: "future resume contributes zero",
			lens: model.Lens{
				Status:             model.StatusInUse,
				AccumulatedUsageMs: int64(time.Hour / time.Millisecond),
				LastResumedAt:      iso(now.Add(time.Hour)),
			},
			want: time.Hour,
		},
		{
			name: "malformed last resume contributes zero",
			lens: model.Lens{
				Status:             model.StatusInUse,
				AccumulatedUsageMs: int64(time.Hour / time.Millisecond),
				LastResumedAt:      "garbage",
			},
			want: time.Hour,
		},
		{
			name: "empty last resume contributes zero",
			lens: model.Lens{
				Status:             model.StatusInUse,
				AccumulatedUsageMs: int64(time.Hour / time.Millisecond),
			},
			want: time.Hour,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, wear.TotalUsage(tc.lens, now))
		})
	}
}

func TestTotalUsageCorruptAccumulator(t *testing.T) {
	// A corrupt negative accumulator counts as zero; the open session still
	// contributes its 60 seconds.
	lens := model.Lens{
		Status:             model.StatusInUse,
		AccumulatedUsageMs: -1,
		LastResumedAt:      "2023-12-31T23:59:00.000Z",
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, int64(60000), wear.TotalUsage(lens, at).Milliseconds())
}

func TestTotalUsageWithExcessDeduction(t *testing.T) {
	now := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)

	t.Run("dormant calendar days age the lens", func(t *testing.T) {
		// Opened 10 days ago, actually worn 48 hours: 10 calendar days minus
		// 2 worn days leaves 8 excess days added to the total.
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now.AddDate(0, 0, -10)),
			AccumulatedUsageMs: int64(48 * time.Hour / time.Millisecond),
		}
		got := wear.TotalUsageWithExcessDeduction(lens, now)
		require.Equal(t, 48*time.Hour+8*24*time.Hour, got)
	})

	t.Run("capped at calendar span", func(t *testing.T) {
		// Opened 3 days ago, never worn: excess alone would be 3 whole days,
		// which already equals the wall-clock span.
		lens := model.Lens{
			Status:         model.StatusOpened,
			WearPeriodDays: 30,
			OpenedDate:     iso(now.AddDate(0, 0, -3)),
		}
		got := wear.TotalUsageWithExcessDeduction(lens, now)
		require.Equal(t, 3*24*time.Hour, got)
	})

	t.Run("no adjustment when worn every day", func(t *testing.T) {
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         iso(now.AddDate(0, 0, -2)),
			AccumulatedUsageMs: int64(2 * 24 * time.Hour / time.Millisecond),
		}
		got := wear.TotalUsageWithExcessDeduction(lens, now)
		require.Equal(t, 2*24*time.Hour, got)
	})

	t.Run("daily lens never adjusted", func(t *testing.T) {
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     1,
			OpenedDate:         iso(now.AddDate(0, 0, -5)),
			AccumulatedUsageMs: int64(2 * time.Hour / time.Millisecond),
		}
		require.Equal(t, 2*time.Hour, wear.TotalUsageWithExcessDeduction(lens, now))
	})

	t.Run("unparseable opened date left unadjusted", func(t *testing.T) {
		lens := model.Lens{
			Status:             model.StatusTakenOff,
			WearPeriodDays:     14,
			OpenedDate:         "bad",
			AccumulatedUsageMs: int64(2 * time.Hour / time.Millisecond),
		}
		require.Equal(t, 2*time.Hour, wear.TotalUsageWithExcessDeduction(lens, now))
	})
}
