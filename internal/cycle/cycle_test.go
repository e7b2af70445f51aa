package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodContaining(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "daily mid-day",
			kind:      Daily,
			at:        time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC),
			wantStart: date(2024, 3, 10),
			wantEnd:   date(2024, 3, 11),
		},
		{
			name:      "daily exactly at midnight starts new period",
			kind:      Daily,
			at:        date(2024, 3, 10),
			wantStart: date(2024, 3, 10),
			wantEnd:   date(2024, 3, 11),
		},
		{
			name:      "weekly anchored to monday",
			kind:      Weekly,
			at:        time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), // Thursday
			wantStart: date(2024, 3, 11),                            // Monday
			wantEnd:   date(2024, 3, 18),
		},
		{
			name:      "weekly on sunday belongs to prior monday",
			kind:      Weekly,
			at:        time.Date(2024, 3, 17, 23, 59, 0, 0, time.UTC),
			wantStart: date(2024, 3, 11),
			wantEnd:   date(2024, 3, 18),
		},
		{
			name:      "weekly on monday midnight starts new week",
			kind:      Weekly,
			at:        date(2024, 3, 18),
			wantStart: date(2024, 3, 18),
			wantEnd:   date(2024, 3, 25),
		},
		{
			name:      "monthly mid-month",
			kind:      Monthly,
			at:        time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			wantStart: date(2024, 1, 1),
			wantEnd:   date(2024, 2, 1),
		},
		{
			name:      "monthly december rolls to january",
			kind:      Monthly,
			at:        date(2024, 12, 20),
			wantStart: date(2024, 12, 1),
			wantEnd:   date(2025, 1, 1),
		},
		{
			name:      "monthly leap february",
			kind:      Monthly,
			at:        date(2024, 2, 29),
			wantStart: date(2024, 2, 1),
			wantEnd:   date(2024, 3, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PeriodContaining(tt.at, tt.kind)
			assert.True(t, start.Equal(tt.wantStart), "start: got %s", start)
			assert.True(t, end.Equal(tt.wantEnd), "end: got %s", end)
		})
	}
}

func TestNextBoundaryAfter(t *testing.T) {
	// Boundary determinism for the monthly cycle.
	assert.True(t, NextBoundaryAfter(date(2024, 1, 15), Monthly).Equal(date(2024, 2, 1)))
	assert.True(t, NextBoundaryAfter(date(2024, 12, 20), Monthly).Equal(date(2025, 1, 1)))

	// A cursor sitting exactly on a boundary advances a full period, never zero.
	assert.True(t, NextBoundaryAfter(date(2024, 4, 1), Monthly).Equal(date(2024, 5, 1)))
	assert.True(t, NextBoundaryAfter(date(2024, 3, 11), Weekly).Equal(date(2024, 3, 18)))
	assert.True(t, NextBoundaryAfter(date(2024, 3, 10), Daily).Equal(date(2024, 3, 11)))
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, Kind(s), k)
	}

	_, err := ParseKind("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidCycle)
}
