// Package cycle implements calendar-interval arithmetic for billing periods.
// All periods are half-open [start, end) and anchored to UTC midnights:
// daily periods at midnight, weekly periods at Monday 00:00, monthly periods
// at the first of the month.
package cycle

import (
	"errors"
	"time"
)

// Kind is the recurring billing interval of a plan.
type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

var ErrInvalidCycle = errors.New("invalid_billing_cycle")

// ParseKind validates a stored cycle string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Daily, Weekly, Monthly:
		return Kind(s), nil
	}
	return "", ErrInvalidCycle
}

func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// PeriodContaining returns the enclosing billing period [start, end) for t.
// An instant exactly on a boundary belongs to the period starting there.
func PeriodContaining(t time.Time, kind Kind) (time.Time, time.Time) {
	t = t.UTC()
	switch kind {
	case Daily:
		start := truncateToMidnight(t)
		return start, start.AddDate(0, 0, 1)
	case Weekly:
		start := truncateToMidnight(t).AddDate(0, 0, -mondayOffset(t))
		return start, start.AddDate(0, 0, 7)
	default:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
}

// NextBoundaryAfter returns the first period boundary strictly greater
// than t: the end of the period containing t.
func NextBoundaryAfter(t time.Time, kind Kind) time.Time {
	_, end := PeriodContaining(t, kind)
	return end
}

func truncateToMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
