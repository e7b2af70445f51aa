package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accessdomain "github.com/wifinitylabs/wifinity/internal/access/domain"
	"github.com/wifinitylabs/wifinity/internal/clock"
	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
)

// Orchestrator requests collection for committed invoices and applies the
// results. The invoice it receives is already durable: nothing that happens
// here can roll it back or duplicate it.
type Orchestrator struct {
	db  *gorm.DB
	log *zap.Logger

	clock   clock.Clock
	gateway paymentdomain.Gateway
	access  accessdomain.Provisioner

	invoiceRepo      invoicedomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	subscriberRepo   subscriberdomain.Repository
	planRepo         plandomain.Repository
}

type OrchestratorParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Gateway paymentdomain.Gateway
	Access  accessdomain.Provisioner

	InvoiceRepo      invoicedomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	SubscriberRepo   subscriberdomain.Repository
	PlanRepo         plandomain.Repository
}

func NewOrchestrator(p OrchestratorParam) paymentdomain.Orchestrator {
	return &Orchestrator{
		db:  p.DB,
		log: p.Log.Named("payment.orchestrator"),

		clock:   p.Clock,
		gateway: p.Gateway,
		access:  p.Access,

		invoiceRepo:      p.InvoiceRepo,
		subscriptionRepo: p.SubscriptionRepo,
		subscriberRepo:   p.SubscriberRepo,
		planRepo:         p.PlanRepo,
	}
}

func (o *Orchestrator) Settle(ctx context.Context, invoiceID snowflake.ID) (paymentdomain.Result, error) {
	inv, err := o.invoiceRepo.FindByID(ctx, o.db, invoiceID)
	if err != nil {
		return paymentdomain.PaymentPending, err
	}
	if inv == nil {
		return paymentdomain.PaymentFailed, invoicedomain.ErrInvoiceNotFound
	}
	if inv.Status == invoicedomain.StatusPaid {
		return paymentdomain.PaymentConfirmed, nil
	}

	sub, err := o.subscriberRepo.FindByID(ctx, o.db, inv.SubscriberID)
	if err != nil {
		return paymentdomain.PaymentPending, err
	}
	if sub == nil || sub.Phone == "" {
		return paymentdomain.PaymentFailed, paymentdomain.ErrMissingPhone
	}

	result, err := o.gateway.RequestPayment(ctx, sub.Phone, inv.Amount, inv.ID)
	if err != nil {
		// Transport trouble. The invoice stays as committed; the next pass
		// or the gateway callback finishes the job.
		o.log.Warn("payment request did not complete",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
		return result, err
	}

	if result == paymentdomain.PaymentConfirmed {
		if err := o.confirm(ctx, inv); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (o *Orchestrator) HandleCallback(ctx context.Context, event paymentdomain.CallbackEvent) error {
	if event.InvoiceID == 0 {
		return paymentdomain.ErrInvalidCallback
	}

	inv, err := o.invoiceRepo.FindByID(ctx, o.db, event.InvoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return invoicedomain.ErrInvoiceNotFound
	}

	if !event.Success {
		o.log.Info("payment declined by gateway",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("receipt_ref", event.ReceiptRef),
		)
		return nil
	}

	return o.confirm(ctx, inv)
}

// confirm marks the invoice paid and asks for access to be enabled. The
// access call is best-effort: its failure is logged, not propagated, because
// connectivity state never gates financial state.
func (o *Orchestrator) confirm(ctx context.Context, inv *invoicedomain.Invoice) error {
	now := o.clock.Now(ctx)
	if err := o.invoiceRepo.MarkPaid(ctx, o.db, inv.ID, now); err != nil {
		if errors.Is(err, invoicedomain.ErrAlreadyPaid) {
			return nil
		}
		return err
	}

	o.log.Info("invoice paid",
		zap.String("invoice_id", inv.ID.String()),
		zap.Float64("amount", inv.Amount),
	)

	sub, err := o.subscriptionRepo.FindByID(ctx, o.db, inv.SubscriptionID)
	if err != nil || sub == nil {
		return nil
	}
	subscriber, err := o.subscriberRepo.FindByID(ctx, o.db, sub.SubscriberID)
	if err != nil || subscriber == nil {
		return nil
	}
	plan, err := o.planRepo.FindByID(ctx, o.db, sub.PlanID)
	if err != nil || plan == nil {
		return nil
	}

	if err := o.access.Enable(ctx, subscriber, plan); err != nil {
		o.log.Warn("access enable failed after payment",
			zap.String("subscriber_id", subscriber.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
