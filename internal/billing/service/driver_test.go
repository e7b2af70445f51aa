package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wifinitylabs/wifinity/internal/clock"
	"github.com/wifinitylabs/wifinity/internal/config"
	"github.com/wifinitylabs/wifinity/internal/cycle"
	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	invoicerepo "github.com/wifinitylabs/wifinity/internal/invoice/repository"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	planrepo "github.com/wifinitylabs/wifinity/internal/plan/repository"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
	subscriberrepo "github.com/wifinitylabs/wifinity/internal/subscriber/repository"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
	subscriptionrepo "github.com/wifinitylabs/wifinity/internal/subscription/repository"
	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
	usagerepo "github.com/wifinitylabs/wifinity/internal/usage/repository"
)

// -- Fakes --

type orchestratorFake struct {
	mu      sync.Mutex
	settled []snowflake.ID
}

func (o *orchestratorFake) Settle(_ context.Context, invoiceID snowflake.ID) (paymentdomain.Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settled = append(o.settled, invoiceID)
	return paymentdomain.PaymentPending, nil
}

func (o *orchestratorFake) HandleCallback(context.Context, paymentdomain.CallbackEvent) error {
	return nil
}

type provisionerFake struct {
	mu       sync.Mutex
	enabled  []string
	disabled []string
}

func (p *provisionerFake) Enable(_ context.Context, sub *subscriberdomain.Subscriber, _ *plandomain.Plan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = append(p.enabled, sub.Phone)
	return nil
}

func (p *provisionerFake) Disable(_ context.Context, sub *subscriberdomain.Subscriber, _ *plandomain.Plan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled = append(p.disabled, sub.Phone)
	return nil
}

// -- Harness --

type harness struct {
	svc          *Service
	db           *gorm.DB
	node         *snowflake.Node
	orchestrator *orchestratorFake
	provisioner  *provisionerFake
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&plandomain.Plan{},
		&subscriberdomain.Subscriber{},
		&subscriptiondomain.Subscription{},
		&usagedomain.UsageRecord{},
		&invoicedomain.Invoice{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orch := &orchestratorFake{}
	prov := &provisionerFake{}

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
		Cfg:   config.Config{BillingWorkers: 2, InvoiceDueDays: 3},

		PlanRepo:         planrepo.Provide(),
		SubscriberRepo:   subscriberrepo.Provide(),
		SubscriptionRepo: subscriptionrepo.Provide(),
		UsageRepo:        usagerepo.Provide(),
		InvoiceRepo:      invoicerepo.Provide(),

		Orchestrator: orch,
		Access:       prov,
	}).(*Service)

	return &harness{svc: svc, db: db, node: node, orchestrator: orch, provisioner: prov}
}

func (h *harness) makePlan(t *testing.T, mutate func(*plandomain.Plan)) *plandomain.Plan {
	t.Helper()
	plan := &plandomain.Plan{
		ID:           h.node.Generate(),
		Name:         "Home Fibre",
		BillingCycle: cycle.Monthly,
		BillingKind:  plandomain.BillingKindFlat,
		Price:        1500,
		Connection:   plandomain.ConnectionPPPoE,
	}
	if mutate != nil {
		mutate(plan)
	}
	require.NoError(t, h.db.Create(plan).Error)
	return plan
}

func (h *harness) makeSubscriber(t *testing.T) *subscriberdomain.Subscriber {
	t.Helper()
	sub := &subscriberdomain.Subscriber{
		ID:     h.node.Generate(),
		Name:   "Amina",
		Phone:  "254" + h.node.Generate().String(),
		Active: true,
	}
	require.NoError(t, h.db.Create(sub).Error)
	return sub
}

func (h *harness) makeSubscription(t *testing.T, plan *plandomain.Plan, mutate func(*subscriptiondomain.Subscription)) *subscriptiondomain.Subscription {
	t.Helper()
	owner := h.makeSubscriber(t)
	sub := &subscriptiondomain.Subscription{
		ID:           h.node.Generate(),
		SubscriberID: owner.ID,
		PlanID:       plan.ID,
		Active:       true,
		StartAt:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(sub)
	}
	require.NoError(t, h.db.Create(sub).Error)
	return sub
}

func (h *harness) invoices(t *testing.T, subscriptionID snowflake.ID) []invoicedomain.Invoice {
	t.Helper()
	var invoices []invoicedomain.Invoice
	require.NoError(t, h.db.Where("subscription_id = ?", subscriptionID).Order("period_start").Find(&invoices).Error)
	return invoices
}

func (h *harness) reload(t *testing.T, id snowflake.ID) *subscriptiondomain.Subscription {
	t.Helper()
	var sub subscriptiondomain.Subscription
	require.NoError(t, h.db.First(&sub, "id = ?", id).Error)
	return &sub
}

// -- Tests --

func TestRunBillingPassProratesFirstPartialMonth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil) // monthly, 1500
	sub := h.makeSubscription(t, plan, nil)
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	report, err := h.svc.RunBillingPass(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvoicesCreated)
	assert.Zero(t, report.Failures)

	invoices := h.invoices(t, sub.ID)
	require.Len(t, invoices, 1)
	inv := invoices[0]

	assert.True(t, inv.PeriodStart.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, inv.PeriodEnd.Equal(now))
	assert.InDelta(t, 1064.52, inv.Amount, 1e-9)
	assert.Equal(t, invoicedomain.StatusUnpaid, inv.Status)
	assert.True(t, inv.DueDate.Equal(now.AddDate(0, 0, 3)))

	details, err := inv.DecodeDetails()
	require.NoError(t, err)
	assert.InDelta(t, 1500, details.PlanPrice, 1e-9)
	assert.InDelta(t, 1064.52, details.ProratedPrice, 1e-9)
	assert.InDelta(t, 22.0/31.0, details.ProrationRatio, 1e-9)

	reloaded := h.reload(t, sub.ID)
	require.NotNil(t, reloaded.LastBilledAt)
	assert.True(t, reloaded.LastBilledAt.Equal(now))
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestRunBillingPassIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil)
	sub := h.makeSubscription(t, plan, nil)
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	first, err := h.svc.RunBillingPass(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.InvoicesCreated)

	second, err := h.svc.RunBillingPass(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, second.InvoicesCreated)

	assert.Len(t, h.invoices(t, sub.ID), 1)
}

func TestRunBillingPassNothingDueYet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil)
	sub := h.makeSubscription(t, plan, nil)

	report, err := h.svc.RunBillingPass(ctx, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, report.InvoicesCreated)
	assert.Empty(t, h.invoices(t, sub.ID))
}

func TestRunBillingPassFullPeriodChargesPlanPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil)
	cursor := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	sub := h.makeSubscription(t, plan, func(s *subscriptiondomain.Subscription) {
		s.LastBilledAt = &cursor
	})

	report, err := h.svc.RunBillingPass(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvoicesCreated)

	invoices := h.invoices(t, sub.ID)
	require.Len(t, invoices, 1)
	assert.InDelta(t, 1500.00, invoices[0].Amount, 1e-9)

	details, err := invoices[0].DecodeDetails()
	require.NoError(t, err)
	assert.Equal(t, 1.0, details.ProrationRatio)
}

func TestRunBillingPassCatchesUpMissedBoundaries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, func(p *plandomain.Plan) {
		p.BillingCycle = cycle.Daily
		p.Price = 50
	})
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	sub := h.makeSubscription(t, plan, func(s *subscriptiondomain.Subscription) {
		s.StartAt = start
	})

	// The scheduler was down for three days. Every missed boundary is
	// billed, one invoice per day.
	report, err := h.svc.RunBillingPass(ctx, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, report.InvoicesCreated)

	invoices := h.invoices(t, sub.ID)
	require.Len(t, invoices, 3)
	for i, inv := range invoices {
		assert.True(t, inv.PeriodStart.Equal(start.AddDate(0, 0, i)))
		assert.True(t, inv.PeriodEnd.Equal(start.AddDate(0, 0, i+1)))
		assert.InDelta(t, 50.00, inv.Amount, 1e-9)
	}

	reloaded := h.reload(t, sub.ID)
	assert.True(t, reloaded.LastBilledAt.Equal(start.AddDate(0, 0, 3)))
}

func TestRunBillingPassAddsUsageCharge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ratePerGB := 50.0
	plan := h.makePlan(t, func(p *plandomain.Plan) {
		p.BillingKind = plandomain.BillingKindData
		p.RatePerGB = &ratePerGB
		p.Price = 1000
	})
	cursor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := h.makeSubscription(t, plan, func(s *subscriptiondomain.Subscription) {
		s.StartAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		s.LastBilledAt = &cursor
	})

	// 2 GiB inside the period, 1 GiB outside it.
	require.NoError(t, h.db.Create(&usagedomain.UsageRecord{
		ID:             h.node.Generate(),
		SubscriptionID: sub.ID,
		RecordedAt:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		RxBytes:        1 << 30,
		TxBytes:        1 << 30,
	}).Error)
	require.NoError(t, h.db.Create(&usagedomain.UsageRecord{
		ID:             h.node.Generate(),
		SubscriptionID: sub.ID,
		RecordedAt:     time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		RxBytes:        1 << 30,
	}).Error)

	report, err := h.svc.RunBillingPass(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvoicesCreated)

	invoices := h.invoices(t, sub.ID)
	require.Len(t, invoices, 1)
	assert.InDelta(t, 1100.00, invoices[0].Amount, 1e-9)

	details, err := invoices[0].DecodeDetails()
	require.NoError(t, err)
	assert.Equal(t, int64(2<<30), details.UsageBytes)
	assert.InDelta(t, 100.00, details.UsageCharge, 1e-9)
}

func TestRunBillingPassDeactivatesExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil)
	endAt := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	sub := h.makeSubscription(t, plan, func(s *subscriptiondomain.Subscription) {
		s.EndAt = &endAt
	})

	report, err := h.svc.RunBillingPass(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deactivated)
	assert.Zero(t, report.InvoicesCreated)

	reloaded := h.reload(t, sub.ID)
	assert.False(t, reloaded.Active)
	assert.Empty(t, h.invoices(t, sub.ID))
	assert.Len(t, h.provisioner.disabled, 1)
}

func TestRunBillingPassIsolatesMisconfiguredPlan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Data plan with no per-GB rate: configuration error.
	broken := h.makePlan(t, func(p *plandomain.Plan) {
		p.BillingKind = plandomain.BillingKindData
		p.RatePerGB = nil
	})

	good := h.makePlan(t, nil)
	badSub := h.makeSubscription(t, broken, nil)
	goodSub := h.makeSubscription(t, good, nil)

	report, err := h.svc.RunBillingPass(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 1, report.InvoicesCreated)

	assert.Empty(t, h.invoices(t, badSub.ID))
	assert.Len(t, h.invoices(t, goodSub.ID), 1)
}

func TestRunBillingPassSettlesAutoRenew(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil)
	h.makeSubscription(t, plan, func(s *subscriptiondomain.Subscription) {
		s.AutoRenew = true
	})
	h.makeSubscription(t, plan, nil) // no auto-renew

	report, err := h.svc.RunBillingPass(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, report.InvoicesCreated)
	assert.Len(t, h.orchestrator.settled, 1)
}

func TestAdvanceCursorRejectsStaleVersion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plan := h.makePlan(t, nil)
	sub := h.makeSubscription(t, plan, nil)

	repo := subscriptionrepo.Provide()
	cursor := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AdvanceCursor(ctx, h.db, sub.ID, cursor, 0))

	// A second writer holding the old version loses the race.
	err := repo.AdvanceCursor(ctx, h.db, sub.ID, cursor.AddDate(0, 1, 0), 0)
	assert.ErrorIs(t, err, subscriptiondomain.ErrCursorConflict)

	reloaded := h.reload(t, sub.ID)
	assert.True(t, reloaded.LastBilledAt.Equal(cursor))
	assert.Equal(t, int64(1), reloaded.Version)
}

var _ billingdomain.Service = (*Service)(nil)
