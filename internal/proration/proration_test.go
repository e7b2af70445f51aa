package proration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	marchStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	aprilStart = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
)

func TestProrateFullPeriodIsIdentity(t *testing.T) {
	amount, ratio := Prorate(1500, marchStart, aprilStart, marchStart, aprilStart)
	assert.Equal(t, 1.0, ratio)
	assert.InDelta(t, 1500.00, amount, 1e-9)

	// Rounding applies even in the identity case.
	amount, ratio = Prorate(10.005, marchStart, aprilStart, marchStart, aprilStart)
	assert.Equal(t, 1.0, ratio)
	assert.InDelta(t, 10.01, amount, 1e-9)
}

func TestProratePartialPeriod(t *testing.T) {
	joined := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	amount, ratio := Prorate(1500, marchStart, aprilStart, joined, aprilStart)
	assert.InDelta(t, 22.0/31.0, ratio, 1e-9)
	assert.InDelta(t, 1064.52, amount, 1e-9)
}

func TestProrateClampsToPeriod(t *testing.T) {
	before := marchStart.AddDate(0, -1, 0)
	after := aprilStart.AddDate(0, 1, 0)

	amount, ratio := Prorate(1000, marchStart, aprilStart, before, after)
	assert.Equal(t, 1.0, ratio)
	assert.InDelta(t, 1000.00, amount, 1e-9)
}

func TestProrateEmptyOverlap(t *testing.T) {
	// Active window entirely before the period.
	amount, ratio := Prorate(1000, marchStart, aprilStart, marchStart.AddDate(0, -1, 0), marchStart)
	assert.Equal(t, 0.0, ratio)
	assert.Equal(t, 0.0, amount)
}

func TestProrateDegeneratePeriod(t *testing.T) {
	amount, ratio := Prorate(1000, marchStart, marchStart, marchStart, aprilStart)
	assert.Equal(t, 0.0, ratio)
	assert.Equal(t, 0.0, amount)
}

func TestProrateMonotonicInActiveWindow(t *testing.T) {
	// For a fixed period, the charge never decreases as the active
	// sub-interval grows.
	prev := -1.0
	for day := 1; day <= 31; day++ {
		end := marchStart.AddDate(0, 0, day)
		amount, _ := Prorate(1500, marchStart, aprilStart, marchStart, end)
		assert.GreaterOrEqual(t, amount, prev, "day %d", day)
		prev = amount
	}
	assert.InDelta(t, 1500.00, prev, 1e-9)
}
