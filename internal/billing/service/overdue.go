package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepOverdue flips unpaid invoices past their due date to Overdue and
// requests access be disabled for the owning subscriber. Runs separately
// from the billing pass: non-payment consequences are never applied
// preemptively at invoice time.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	candidates, err := s.invoiceRepo.ListOverdueCandidates(ctx, s.db, now)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for i := range candidates {
		inv := &candidates[i]
		if err := s.invoiceRepo.MarkOverdue(ctx, s.db, inv.ID); err != nil {
			s.log.Error("overdue transition failed",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
			continue
		}
		flipped++

		sub, err := s.subscriptionRepo.FindByID(ctx, s.db, inv.SubscriptionID)
		if err != nil || sub == nil {
			continue
		}
		subscriber, err := s.subscriberRepo.FindByID(ctx, s.db, sub.SubscriberID)
		if err != nil || subscriber == nil {
			continue
		}
		plan, err := s.planRepo.FindByID(ctx, s.db, sub.PlanID)
		if err != nil || plan == nil {
			continue
		}
		if err := s.access.Disable(ctx, subscriber, plan); err != nil {
			s.log.Warn("access disable failed for overdue invoice",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("subscriber_id", subscriber.ID.String()),
				zap.Error(err),
			)
		}
	}

	if flipped > 0 {
		s.log.Info("overdue sweep complete", zap.Int("flipped", flipped))
	}
	return flipped, nil
}
