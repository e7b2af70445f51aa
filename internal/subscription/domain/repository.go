package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, s *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Subscription, error)

	// AdvanceCursor moves last_billed_at forward iff the row's version still
	// equals expectedVersion. Returns ErrCursorConflict otherwise. Callers
	// run it inside the same transaction that persists the invoice.
	AdvanceCursor(ctx context.Context, db *gorm.DB, id snowflake.ID, cursor time.Time, expectedVersion int64) error

	// SwitchPlan swaps plan_id and resets the cursor to the switch instant,
	// under the same optimistic version check as AdvanceCursor.
	SwitchPlan(ctx context.Context, db *gorm.DB, id, planID snowflake.ID, at time.Time, expectedVersion int64) error

	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	ClearMidCycleFlag(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ResetUsageHours(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	AccrueUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, bytes int64, hours float64) error
}
