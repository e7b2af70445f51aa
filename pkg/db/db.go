// Package db opens the shared gorm handle.
package db

import (
	"errors"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wifinitylabs/wifinity/internal/config"
)

var ErrUnsupportedDriver = errors.New("unsupported_db_driver")

func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	default:
		return nil, ErrUnsupportedDriver
	}

	handle, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	log.Info("database opened", zap.String("driver", cfg.DBDriver))
	return handle, nil
}

var Module = fx.Module("db",
	fx.Provide(Open),
)
