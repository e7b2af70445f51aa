package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]subscriptiondomain.Subscription, error) {
	var subs []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscriptions WHERE active = ? ORDER BY id`,
		true,
	).Scan(&subs).Error
	return subs, err
}

func (r *repo) AdvanceCursor(ctx context.Context, db *gorm.DB, id snowflake.ID, cursor time.Time, expectedVersion int64) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET last_billed_at = ?, mid_cycle_plan_change = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		cursor,
		false,
		time.Now().UTC(),
		id,
		expectedVersion,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return subscriptiondomain.ErrCursorConflict
	}
	return nil
}

func (r *repo) SwitchPlan(ctx context.Context, db *gorm.DB, id, planID snowflake.ID, at time.Time, expectedVersion int64) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET plan_id = ?, last_billed_at = ?, mid_cycle_plan_change = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		planID,
		at,
		true,
		time.Now().UTC(),
		id,
		expectedVersion,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return subscriptiondomain.ErrCursorConflict
	}
	return nil
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET active = ?, updated_at = ? WHERE id = ?`,
		false,
		at,
		id,
	).Error
}

func (r *repo) ClearMidCycleFlag(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET mid_cycle_plan_change = ? WHERE id = ?`,
		false,
		id,
	).Error
}

func (r *repo) ResetUsageHours(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET usage_hours = 0 WHERE id = ?`,
		id,
	).Error
}

func (r *repo) AccrueUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, bytes int64, hours float64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET usage_bytes = usage_bytes + ?, usage_hours = usage_hours + ?
		 WHERE id = ?`,
		bytes,
		hours,
		id,
	).Error
}
