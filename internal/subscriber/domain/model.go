// Package domain holds the subscriber (account holder) model. The billing
// engine reads subscribers for payment and access-provisioning identity; it
// never mutates them.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrSubscriberNotFound = errors.New("subscriber_not_found")

type Subscriber struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text"`
	Phone     string       `json:"phone" gorm:"type:text;not null;uniqueIndex"`
	Email     string       `json:"email" gorm:"type:text"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Subscriber) TableName() string { return "subscribers" }
