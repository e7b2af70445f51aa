package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
)

type repo struct{}

func Provide() subscriberdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *subscriberdomain.Subscriber) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriberdomain.Subscriber, error) {
	var sub subscriberdomain.Subscriber
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscribers WHERE id = ?`,
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

func (r *repo) FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*subscriberdomain.Subscriber, error) {
	var sub subscriberdomain.Subscriber
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscribers WHERE phone = ?`,
		phone,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}
