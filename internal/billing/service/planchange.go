package service

import (
	"context"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"go.uber.org/zap"

	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	"github.com/wifinitylabs/wifinity/internal/cycle"
	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	"github.com/wifinitylabs/wifinity/internal/money"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
)

const planChangeNote = "mid-cycle plan change settlement (old plan)"

// ChangePlan settles the outgoing plan for the used fraction of the current
// cycle, then swaps the plan and resets the billing cursor to the switch
// instant. The next regular pass bills the new plan from exactly there,
// prorating its first period through the ordinary path.
func (s *Service) ChangePlan(ctx context.Context, req billingdomain.ChangePlanRequest) error {
	subID, err := parseSnowflake(req.SubscriptionID)
	if err != nil {
		return billingdomain.ErrInvalidSubscription
	}
	newPlanID, err := parseSnowflake(req.NewPlanID)
	if err != nil {
		return billingdomain.ErrInvalidPlan
	}

	sub, err := s.subscriptionRepo.FindByID(ctx, s.db, subID)
	if err != nil {
		return err
	}
	if sub == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	if !sub.Active {
		return subscriptiondomain.ErrSubscriptionInactive
	}
	if sub.PlanID == newPlanID {
		return billingdomain.ErrSamePlan
	}

	oldPlan, err := s.planRepo.FindByID(ctx, s.db, sub.PlanID)
	if err != nil {
		return err
	}
	if oldPlan == nil {
		return plandomain.ErrPlanNotFound
	}
	newPlan, err := s.planRepo.FindByID(ctx, s.db, newPlanID)
	if err != nil {
		return err
	}
	if newPlan == nil {
		return plandomain.ErrPlanNotFound
	}
	if err := newPlan.Validate(); err != nil {
		return err
	}

	now := s.clock.Now(ctx).UTC()

	// Current cycle under the old plan's calendar, clamped to the
	// subscription start for mid-cycle joiners.
	periodStart, periodEnd := cycle.PeriodContaining(now, oldPlan.BillingCycle)
	if sub.StartAt.After(periodStart) {
		periodStart = sub.StartAt
	}

	// Already settled through now (or beyond): nothing owed for the old plan.
	owed := sub.LastBilledAt == nil || now.After(*sub.LastBilledAt)

	// The cursor never moves backward. When the switch instant is already
	// covered, the swap keeps the existing cursor so the next pass cannot
	// re-bill time the old plan's invoice paid for.
	cursorAt := now
	if sub.LastBilledAt != nil && sub.LastBilledAt.After(now) {
		cursorAt = *sub.LastBilledAt
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if owed {
			total := periodEnd.Sub(periodStart).Seconds()
			usedRatio := 0.0
			if total > 0 {
				usedRatio = now.Sub(periodStart).Seconds() / total
			}
			if usedRatio < 0 {
				usedRatio = 0
			}
			if usedRatio > 1 {
				usedRatio = 1
			}
			usedAmount := money.Mul(oldPlan.Price, usedRatio)

			inv := &invoicedomain.Invoice{
				ID:             s.genID.Generate(),
				SubscriberID:   sub.SubscriberID,
				SubscriptionID: sub.ID,
				PeriodStart:    periodStart,
				PeriodEnd:      now,
				Amount:         usedAmount,
				Status:         invoicedomain.StatusUnpaid,
				GeneratedAt:    now,
				DueDate:        now.AddDate(0, 0, s.dueDays),
			}
			if err := inv.EncodeDetails(invoicedomain.Details{
				PlanPrice:      oldPlan.Price,
				ProratedPrice:  usedAmount,
				ProrationRatio: usedRatio,
				Note:           planChangeNote,
			}); err != nil {
				return err
			}
			if err := s.invoiceRepo.Insert(ctx, tx, inv); err != nil {
				return err
			}

			s.log.Info("plan change settlement invoiced",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("invoice_id", inv.ID.String()),
				zap.Float64("used_ratio", usedRatio),
				zap.Float64("amount", usedAmount),
			)
		}

		return s.subscriptionRepo.SwitchPlan(ctx, tx, sub.ID, newPlanID, cursorAt, sub.Version)
	})
}

func parseSnowflake(raw string) (snowflake.ID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, strconv.ErrSyntax
	}
	return snowflake.ID(n), nil
}
