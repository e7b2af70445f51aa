// Package domain defines the append-only metering record. Records are
// written by the metering collaborator and only ever summed by range here.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidSubscription = errors.New("invalid_subscription")
	ErrInvalidRecordedAt   = errors.New("invalid_recorded_at")
	ErrNegativeBytes       = errors.New("negative_byte_count")
)

type UsageRecord struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	SubscriptionID snowflake.ID `json:"subscription_id" gorm:"not null;index:idx_usage_sub_time"`
	RecordedAt     time.Time    `json:"recorded_at" gorm:"not null;index:idx_usage_sub_time"`
	RxBytes        int64        `json:"rx_bytes" gorm:"not null;default:0"`
	TxBytes        int64        `json:"tx_bytes" gorm:"not null;default:0"`
}

func (UsageRecord) TableName() string { return "usage_records" }

type IngestRequest struct {
	SubscriptionID string    `json:"subscription_id"`
	RecordedAt     time.Time `json:"recorded_at"`
	RxBytes        int64     `json:"rx_bytes"`
	TxBytes        int64     `json:"tx_bytes"`
	Hours          float64   `json:"hours,omitempty"`
}

type Service interface {
	Ingest(ctx context.Context, req IngestRequest) (*UsageRecord, error)

	// BytesInPeriod sums rx+tx over [start, end) for a subscription.
	BytesInPeriod(ctx context.Context, subscriptionID snowflake.ID, start, end time.Time) (int64, error)
}
