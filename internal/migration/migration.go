// Package migration applies the schema. AutoMigrate keeps sqlite and
// postgres deployments on the same code path.
package migration

import (
	"errors"

	"gorm.io/gorm"

	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&plandomain.Plan{},
		&subscriberdomain.Subscriber{},
		&subscriptiondomain.Subscription{},
		&usagedomain.UsageRecord{},
		&invoicedomain.Invoice{},
	)
}
