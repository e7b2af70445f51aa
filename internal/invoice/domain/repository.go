package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]Invoice, error)
	ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Invoice, error)

	// MarkPaid transitions Unpaid/Overdue -> Paid. It never touches amount
	// or period and is a no-op returning ErrAlreadyPaid when already paid.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error

	// ListOverdueCandidates returns unpaid invoices whose due date passed.
	ListOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time) ([]Invoice, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
