package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rec *UsageRecord) error
	SumRange(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, start, end time.Time) (int64, error)
}
