// Package proration computes the fractional charge owed for partial
// occupancy of a billing period. Full-period billing is the identity case
// of the same formula, not a separate path.
package proration

import (
	"time"

	"github.com/wifinitylabs/wifinity/internal/money"
)

// Prorate charges fullPrice for the overlap of [activeStart, activeEnd)
// with [periodStart, periodEnd). The ratio is measured in seconds and
// clamped to [0, 1]; a degenerate zero-length period yields ratio 0.
func Prorate(fullPrice float64, periodStart, periodEnd, activeStart, activeEnd time.Time) (float64, float64) {
	if activeStart.Before(periodStart) {
		activeStart = periodStart
	}
	if activeEnd.After(periodEnd) {
		activeEnd = periodEnd
	}

	total := periodEnd.Sub(periodStart).Seconds()
	if total <= 0 {
		return 0, 0
	}

	ratio := activeEnd.Sub(activeStart).Seconds() / total
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	return money.Mul(fullPrice, ratio), ratio
}
