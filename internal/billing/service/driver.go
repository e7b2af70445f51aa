package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	accessdomain "github.com/wifinitylabs/wifinity/internal/access/domain"
	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	"github.com/wifinitylabs/wifinity/internal/clock"
	"github.com/wifinitylabs/wifinity/internal/config"
	"github.com/wifinitylabs/wifinity/internal/cycle"
	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	"github.com/wifinitylabs/wifinity/internal/money"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	"github.com/wifinitylabs/wifinity/internal/proration"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock

	planRepo         plandomain.Repository
	subscriberRepo   subscriberdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	usageRepo        usagedomain.Repository
	invoiceRepo      invoicedomain.Repository

	orchestrator paymentdomain.Orchestrator
	access       accessdomain.Provisioner

	workers int
	dueDays int
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config

	PlanRepo         plandomain.Repository
	SubscriberRepo   subscriberdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	UsageRepo        usagedomain.Repository
	InvoiceRepo      invoicedomain.Repository

	Orchestrator paymentdomain.Orchestrator
	Access       accessdomain.Provisioner
}

func NewService(p ServiceParam) billingdomain.Service {
	workers := p.Cfg.BillingWorkers
	if workers <= 0 {
		workers = 1
	}
	dueDays := p.Cfg.InvoiceDueDays
	if dueDays <= 0 {
		dueDays = 3
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("billing.service"),

		genID: p.GenID,
		clock: p.Clock,

		planRepo:         p.PlanRepo,
		subscriberRepo:   p.SubscriberRepo,
		subscriptionRepo: p.SubscriptionRepo,
		usageRepo:        p.UsageRepo,
		invoiceRepo:      p.InvoiceRepo,

		orchestrator: p.Orchestrator,
		access:       p.Access,

		workers: workers,
		dueDays: dueDays,
	}
}

// RunBillingPass bills every active subscription up to now. Subscriptions
// are independent of each other, so they are processed by a bounded worker
// pool; each one's read-decide-write runs as its own transaction.
func (s *Service) RunBillingPass(ctx context.Context, now time.Time) (billingdomain.PassReport, error) {
	started := time.Now()
	defer func() { passDuration.Observe(time.Since(started).Seconds()) }()

	now = now.UTC()
	subs, err := s.subscriptionRepo.ListActive(ctx, s.db)
	if err != nil {
		return billingdomain.PassReport{}, err
	}

	var (
		mu     sync.Mutex
		report billingdomain.PassReport
	)
	report.Processed = len(subs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range subs {
		sub := subs[i]
		g.Go(func() error {
			created, deactivated, err := s.processSubscription(gctx, &sub, now)

			mu.Lock()
			defer mu.Unlock()
			report.InvoicesCreated += created
			if deactivated {
				report.Deactivated++
			}
			switch {
			case err == nil:
			case errors.Is(err, subscriptiondomain.ErrCursorConflict):
				// Another pass advanced the cursor under us. Expected;
				// the next scheduled pass re-evaluates from durable state.
				report.Conflicts++
				cursorConflicts.Inc()
			default:
				report.Failures++
				subscriptionFailures.Inc()
				s.log.Error("subscription billing failed",
					zap.String("subscription_id", sub.ID.String()),
					zap.Error(err),
				)
			}
			// Failures stay isolated to their subscription.
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("billing pass complete",
		zap.Time("now", now),
		zap.Int("processed", report.Processed),
		zap.Int("invoices_created", report.InvoicesCreated),
		zap.Int("deactivated", report.Deactivated),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("failures", report.Failures),
	)
	return report, nil
}

// processSubscription evaluates one subscription at the pass instant,
// billing every boundary crossed since its cursor.
func (s *Service) processSubscription(ctx context.Context, sub *subscriptiondomain.Subscription, now time.Time) (int, bool, error) {
	if !sub.Active {
		return 0, false, nil
	}

	plan, err := s.planRepo.FindByID(ctx, s.db, sub.PlanID)
	if err != nil {
		return 0, false, err
	}
	if plan == nil {
		return 0, false, plandomain.ErrPlanNotFound
	}
	if err := plan.Validate(); err != nil {
		// Configuration error: report, skip, keep the pass going.
		return 0, false, err
	}

	if sub.Expired(now) {
		return 0, true, s.expire(ctx, sub, plan)
	}

	created := 0
	cursor := sub.BillingAnchor()
	version := sub.Version
	for {
		boundary := cycle.NextBoundaryAfter(cursor, plan.BillingCycle)
		if now.Before(boundary) {
			break
		}

		periodStart, _ := cycle.PeriodContaining(cursor, plan.BillingCycle)
		if err := s.billPeriod(ctx, sub, plan, cursor, periodStart, boundary, now, version); err != nil {
			return created, false, err
		}
		created++
		version++
		cursor = boundary

		if sub.EndAt != nil && !boundary.Before(*sub.EndAt) {
			break
		}
	}
	return created, false, nil
}

// billPeriod creates the invoice for one crossed boundary and advances the
// billing cursor in the same transaction. Either both commit or neither
// does; that is what keeps one-invoice-per-period true under crashes and
// concurrent passes.
func (s *Service) billPeriod(
	ctx context.Context,
	sub *subscriptiondomain.Subscription,
	plan *plandomain.Plan,
	cursor, periodStart, periodEnd, now time.Time,
	expectedVersion int64,
) error {
	// Time already covered through the cursor is never billed again. The
	// cursor sits inside the period right after a mid-cycle plan change.
	billStart := periodStart
	if cursor.After(billStart) {
		billStart = cursor
	}
	billEnd := periodEnd
	if sub.EndAt != nil && sub.EndAt.Before(periodEnd) {
		billEnd = *sub.EndAt
	}

	var (
		baseCharge float64
		ratio      float64
	)
	if billStart.Equal(periodStart) && billEnd.Equal(periodEnd) {
		baseCharge, ratio = money.Round(plan.Price), 1.0
	} else {
		baseCharge, ratio = proration.Prorate(plan.Price, periodStart, periodEnd, billStart, billEnd)
	}

	var usageBytes int64
	var usageCharge float64
	if plan.RatePerGB != nil {
		bytes, err := s.usageRepo.SumRange(ctx, s.db, sub.ID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		usageBytes = bytes
		usageCharge = usagedomain.DataCharge(bytes, plan.RatePerGB)
	}

	timeBilled := false
	if plan.BillingKind == plandomain.BillingKindTime && plan.RatePerHour != nil && sub.UsageHours > 0 {
		usageCharge = money.Round(usageCharge + usagedomain.TimeCharge(sub.UsageHours, plan.RatePerHour))
		timeBilled = true
	}

	total := money.Round(baseCharge + usageCharge)

	inv := &invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		SubscriberID:   sub.SubscriberID,
		SubscriptionID: sub.ID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Amount:         total,
		Status:         invoicedomain.StatusUnpaid,
		GeneratedAt:    now,
		DueDate:        now.AddDate(0, 0, s.dueDays),
	}
	if err := inv.EncodeDetails(invoicedomain.Details{
		PlanPrice:      plan.Price,
		ProratedPrice:  baseCharge,
		ProrationRatio: ratio,
		UsageBytes:     usageBytes,
		UsageCharge:    usageCharge,
	}); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.Insert(ctx, tx, inv); err != nil {
			return err
		}
		if timeBilled {
			if err := s.subscriptionRepo.ResetUsageHours(ctx, tx, sub.ID); err != nil {
				return err
			}
			sub.UsageHours = 0
		}
		return s.subscriptionRepo.AdvanceCursor(ctx, tx, sub.ID, periodEnd, expectedVersion)
	})
	if err != nil {
		return err
	}
	invoicesCreated.Inc()

	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd),
		zap.Float64("amount", total),
		zap.Float64("proration_ratio", ratio),
	)

	// Settlement is a follow-up step on the already-committed invoice. It
	// runs outside the transaction: a gateway hiccup can delay collection
	// but can never unwind the invoice.
	if sub.AutoRenew {
		if _, err := s.orchestrator.Settle(ctx, inv.ID); err != nil {
			s.log.Warn("immediate settlement incomplete",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// expire handles a subscription whose fixed term has passed: deactivate and
// revoke access, no invoice. Terminal transition.
func (s *Service) expire(ctx context.Context, sub *subscriptiondomain.Subscription, plan *plandomain.Plan) error {
	if err := s.subscriptionRepo.Deactivate(ctx, s.db, sub.ID, s.clock.Now(ctx)); err != nil {
		return err
	}

	subscriber, err := s.subscriberRepo.FindByID(ctx, s.db, sub.SubscriberID)
	if err != nil || subscriber == nil {
		return err
	}
	if err := s.access.Disable(ctx, subscriber, plan); err != nil {
		s.log.Warn("access disable failed for expired subscription",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("subscription expired",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("subscriber_id", sub.SubscriberID.String()),
	)
	return nil
}
