// Package domain defines the invoice: an immutable financial fact once
// created. Only the status and paid timestamp may change afterwards;
// corrections are new invoices, never edits.
package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusUnpaid  Status = "Unpaid"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvalidAmount   = errors.New("invalid_invoice_amount")
	ErrInvalidPeriod   = errors.New("invalid_invoice_period")
	ErrAlreadyPaid     = errors.New("invoice_already_paid")
)

// Details is the audit breakdown stored with every invoice.
type Details struct {
	PlanPrice      float64 `json:"plan_price"`
	ProratedPrice  float64 `json:"prorated_price"`
	ProrationRatio float64 `json:"proration_ratio"`
	UsageBytes     int64   `json:"usage_bytes"`
	UsageCharge    float64 `json:"usage_charge"`
	Note           string  `json:"note,omitempty"`
}

type Invoice struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	SubscriberID   snowflake.ID `json:"subscriber_id" gorm:"not null;index"`
	SubscriptionID snowflake.ID `json:"subscription_id" gorm:"not null;index"`

	PeriodStart time.Time `json:"period_start" gorm:"not null"`
	PeriodEnd   time.Time `json:"period_end" gorm:"not null"`

	Amount float64 `json:"amount" gorm:"not null"`
	Status Status  `json:"status" gorm:"type:text;not null;default:Unpaid"`

	GeneratedAt time.Time  `json:"generated_at" gorm:"not null"`
	DueDate     time.Time  `json:"due_date" gorm:"not null"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	Details datatypes.JSON `json:"details" gorm:"type:jsonb"`
}

func (Invoice) TableName() string { return "invoices" }

// EncodeDetails serializes the breakdown into the details column.
func (i *Invoice) EncodeDetails(d Details) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	i.Details = datatypes.JSON(raw)
	return nil
}

// DecodeDetails reads the stored breakdown back out.
func (i *Invoice) DecodeDetails() (Details, error) {
	var d Details
	if len(i.Details) == 0 {
		return d, nil
	}
	err := json.Unmarshal(i.Details, &d)
	return d, err
}

// Validate enforces the data invariants checked before an invoice commits.
func (i *Invoice) Validate() error {
	if i.Amount < 0 {
		return ErrInvalidAmount
	}
	if !i.PeriodEnd.After(i.PeriodStart) {
		return ErrInvalidPeriod
	}
	return nil
}
