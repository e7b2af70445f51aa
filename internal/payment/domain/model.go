// Package domain defines the payment boundary. Outcomes are an explicit
// closed result type so every caller handles confirmed, failed, and pending
// distinctly; gateway transport trouble surfaces as an error alongside a
// pending result, never as a hidden control-flow exception.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Result string

const (
	PaymentConfirmed Result = "confirmed"
	PaymentFailed    Result = "failed"
	PaymentPending   Result = "pending"
)

var (
	ErrGatewayUnavailable = errors.New("payment_gateway_unavailable")
	ErrInvalidCallback    = errors.New("invalid_payment_callback")
	ErrMissingPhone       = errors.New("subscriber_phone_missing")
)

// Gateway initiates a push payment. A transport failure returns
// (PaymentPending, err): the invoice stays unpaid and a later pass or the
// asynchronous callback settles it.
type Gateway interface {
	RequestPayment(ctx context.Context, phone string, amount float64, invoiceID snowflake.ID) (Result, error)
}

// CallbackEvent is the gateway's asynchronous settlement notification.
type CallbackEvent struct {
	InvoiceID  snowflake.ID `json:"invoice_id"`
	Success    bool         `json:"success"`
	ReceiptRef string       `json:"receipt_ref"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Orchestrator sits between the billing driver and the external payment and
// access collaborators. It only ever moves an invoice Unpaid -> Paid; it
// never creates, deletes, or re-prices records.
type Orchestrator interface {
	// Settle attempts immediate collection for a freshly committed invoice.
	Settle(ctx context.Context, invoiceID snowflake.ID) (Result, error)

	// HandleCallback applies an asynchronous gateway notification.
	HandleCallback(ctx context.Context, event CallbackEvent) error
}
