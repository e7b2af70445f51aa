// Package seed loads a small demo dataset for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/wifinitylabs/wifinity/internal/cycle"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
)

func ptr(v float64) *float64 { return &v }

// EnsureDemoData inserts a few plans, subscribers and subscriptions when the
// database is empty. Re-running against a populated database is a no-op.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(9)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&plandomain.Plan{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		plans := []plandomain.Plan{
			{
				ID:           node.Generate(),
				Name:         "Home Fibre 10",
				BillingCycle: cycle.Monthly,
				BillingKind:  plandomain.BillingKindFlat,
				Price:        1500,
				Connection:   plandomain.ConnectionPPPoE,
				DownloadMbps: ptr(10),
				UploadMbps:   ptr(5),
			},
			{
				ID:           node.Generate(),
				Name:         "Hotspot Metered",
				BillingCycle: cycle.Weekly,
				BillingKind:  plandomain.BillingKindData,
				Price:        200,
				RatePerGB:    ptr(50),
				Connection:   plandomain.ConnectionHotspot,
			},
			{
				ID:           node.Generate(),
				Name:         "Cyber Hourly",
				BillingCycle: cycle.Daily,
				BillingKind:  plandomain.BillingKindTime,
				Price:        0,
				RatePerHour:  ptr(30),
				Connection:   plandomain.ConnectionHotspot,
			},
		}
		for i := range plans {
			if err := plans[i].Validate(); err != nil {
				return err
			}
			if err := tx.Create(&plans[i]).Error; err != nil {
				return err
			}
		}

		subscribers := []subscriberdomain.Subscriber{
			{ID: node.Generate(), Name: "Amina Odhiambo", Phone: "254712000001", Active: true},
			{ID: node.Generate(), Name: "Brian Mwangi", Phone: "254712000002", Active: true},
		}
		for i := range subscribers {
			if err := tx.Create(&subscribers[i]).Error; err != nil {
				return err
			}
		}

		start := time.Now().UTC().AddDate(0, 0, -10)
		subscriptions := []subscriptiondomain.Subscription{
			{
				ID:           node.Generate(),
				SubscriberID: subscribers[0].ID,
				PlanID:       plans[0].ID,
				Active:       true,
				AutoRenew:    true,
				StartAt:      start,
			},
			{
				ID:           node.Generate(),
				SubscriberID: subscribers[1].ID,
				PlanID:       plans[1].ID,
				Active:       true,
				StartAt:      start,
			},
		}
		for i := range subscriptions {
			if err := tx.Create(&subscriptions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
