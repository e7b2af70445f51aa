package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *invoicedomain.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return db.WithContext(ctx).Create(inv).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE id = ?`,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE subscriber_id = ? ORDER BY generated_at DESC`,
		subscriberID,
	).Scan(&invoices).Error
	return invoices, err
}

func (r *repo) ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE subscription_id = ? ORDER BY period_start`,
		subscriptionID,
	).Scan(&invoices).Error
	return invoices, err
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, paid_at = ? WHERE id = ? AND status != ?`,
		invoicedomain.StatusPaid,
		at,
		id,
		invoicedomain.StatusPaid,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return invoicedomain.ErrAlreadyPaid
	}
	return nil
}

func (r *repo) ListOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE status = ? AND due_date < ?`,
		invoicedomain.StatusUnpaid,
		now,
	).Scan(&invoices).Error
	return invoices, err
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ? WHERE id = ? AND status = ?`,
		invoicedomain.StatusOverdue,
		id,
		invoicedomain.StatusUnpaid,
	).Error
}
