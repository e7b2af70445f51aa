// Package domain defines the subscription model: a subscriber's enrollment
// in a plan over time, carrying the billing cursor the driver advances.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrSubscriptionInactive = errors.New("subscription_inactive")

	// ErrCursorConflict means another pass advanced the billing cursor
	// between our read and our write. Expected under concurrent passes,
	// not a failure: the caller drops the update and retries next pass.
	ErrCursorConflict = errors.New("billing_cursor_conflict")
)

type Subscription struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	SubscriberID snowflake.ID `json:"subscriber_id" gorm:"not null;index"`
	PlanID       snowflake.ID `json:"plan_id" gorm:"not null;index"`

	Active    bool `json:"active" gorm:"not null;default:true;index"`
	AutoRenew bool `json:"auto_renew" gorm:"not null;default:false"`

	StartAt time.Time  `json:"start_at" gorm:"not null"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	// LastBilledAt is the exclusive end of the last invoiced period.
	// Nil until the first invoice; monotonically non-decreasing after.
	LastBilledAt *time.Time `json:"last_billed_at,omitempty"`

	MidCyclePlanChange bool `json:"mid_cycle_plan_change" gorm:"not null;default:false"`

	// Metering accumulators written by the metering collaborator.
	UsageBytes int64   `json:"usage_bytes" gorm:"not null;default:0"`
	UsageHours float64 `json:"usage_hours" gorm:"not null;default:0"`

	// Version guards every cursor write: cursor advances commit only if the
	// row is unchanged since it was read.
	Version int64 `json:"version" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

// BillingAnchor is the instant billing resumes from: the cursor when one
// exists, otherwise the subscription start.
func (s *Subscription) BillingAnchor() time.Time {
	if s.LastBilledAt != nil {
		return *s.LastBilledAt
	}
	return s.StartAt
}

// Expired reports whether the fixed term has passed at the given instant.
func (s *Subscription) Expired(now time.Time) bool {
	return s.EndAt != nil && now.After(*s.EndAt)
}
