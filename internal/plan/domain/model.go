// Package domain defines the pricing policy models. A Plan is immutable per
// version: the billing engine only ever reads it.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/wifinitylabs/wifinity/internal/cycle"
)

// BillingKind is a closed variant: every plan charges in exactly one of
// these ways, and a kind that needs a rate must carry it from construction.
type BillingKind string

const (
	BillingKindFlat BillingKind = "flat"
	BillingKindData BillingKind = "data"
	BillingKindTime BillingKind = "time"
)

// ConnectionType selects how the subscriber is provisioned on the router.
type ConnectionType string

const (
	ConnectionPPPoE    ConnectionType = "pppoe"
	ConnectionHotspot  ConnectionType = "hotspot"
	ConnectionStaticIP ConnectionType = "static_ip"
)

var (
	ErrPlanNotFound       = errors.New("plan_not_found")
	ErrInvalidBillingKind = errors.New("invalid_billing_kind")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrMissingDataRate    = errors.New("plan_missing_rate_per_gb")
	ErrMissingTimeRate    = errors.New("plan_missing_rate_per_hour")
)

type Plan struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:text;not null"`
	BillingCycle cycle.Kind     `json:"billing_cycle" gorm:"type:text;not null"`
	BillingKind  BillingKind    `json:"billing_kind" gorm:"type:text;not null;default:flat"`
	Price        float64        `json:"price" gorm:"not null"`
	RatePerGB    *float64       `json:"rate_per_gb,omitempty"`
	RatePerHour  *float64       `json:"rate_per_hour,omitempty"`
	DataQuotaGB  *float64       `json:"data_quota_gb,omitempty"`
	DownloadMbps *float64       `json:"download_mbps,omitempty"`
	UploadMbps   *float64       `json:"upload_mbps,omitempty"`
	Connection   ConnectionType `json:"connection_type" gorm:"type:text;not null;default:pppoe"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"not null"`
}

func (Plan) TableName() string { return "plans" }

// Validate enforces the kind/rate pairing. A data plan without a per-GB rate
// (or a time plan without a per-hour rate) is a configuration error, never a
// silent zero charge.
func (p *Plan) Validate() error {
	if !p.BillingCycle.Valid() {
		return cycle.ErrInvalidCycle
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	switch p.BillingKind {
	case BillingKindFlat:
		return nil
	case BillingKindData:
		if p.RatePerGB == nil {
			return ErrMissingDataRate
		}
		return nil
	case BillingKindTime:
		if p.RatePerHour == nil {
			return ErrMissingTimeRate
		}
		return nil
	default:
		return ErrInvalidBillingKind
	}
}
