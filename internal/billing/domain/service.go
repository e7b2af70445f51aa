// Package domain defines the billing engine's top-level contract: the
// scheduled pass that turns crossed period boundaries into invoices, the
// mid-cycle plan-change settlement, and the overdue sweep.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidPlan         = errors.New("invalid_plan")
	ErrInvalidSubscription = errors.New("invalid_subscription")
	ErrSamePlan            = errors.New("plan_change_same_plan")
)

// PassReport summarizes one billing pass. Failures are per-subscription:
// a pass never aborts because one subscription misbehaved.
type PassReport struct {
	Processed       int `json:"processed"`
	InvoicesCreated int `json:"invoices_created"`
	Deactivated     int `json:"deactivated"`
	Conflicts       int `json:"conflicts"`
	Failures        int `json:"failures"`
}

type ChangePlanRequest struct {
	SubscriptionID string `json:"subscription_id"`
	NewPlanID      string `json:"new_plan_id"`
}

type Service interface {
	// RunBillingPass walks every active subscription at the given instant,
	// invoicing each period boundary crossed since its billing cursor.
	// The explicit now keeps passes deterministic under test.
	RunBillingPass(ctx context.Context, now time.Time) (PassReport, error)

	// ChangePlan settles the outgoing plan for the elapsed fraction of the
	// current cycle and resets the cursor so the new plan starts cleanly.
	ChangePlan(ctx context.Context, req ChangePlanRequest) error

	// SweepOverdue flips unpaid invoices past their due date to Overdue and
	// requests access be disabled. Returns the number of invoices flipped.
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}
