package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rec *usagedomain.UsageRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

func (r *repo) SumRange(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, start, end time.Time) (int64, error) {
	var total *int64
	err := db.WithContext(ctx).Raw(
		`SELECT SUM(rx_bytes + tx_bytes) FROM usage_records
		 WHERE subscription_id = ? AND recorded_at >= ? AND recorded_at < ?`,
		subscriptionID,
		start,
		end,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
