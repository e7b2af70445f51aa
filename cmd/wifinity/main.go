package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/wifinitylabs/wifinity/internal/access"
	"github.com/wifinitylabs/wifinity/internal/billing"
	"github.com/wifinitylabs/wifinity/internal/clock"
	"github.com/wifinitylabs/wifinity/internal/config"
	"github.com/wifinitylabs/wifinity/internal/invoice"
	"github.com/wifinitylabs/wifinity/internal/migration"
	"github.com/wifinitylabs/wifinity/internal/observability"
	"github.com/wifinitylabs/wifinity/internal/payment"
	"github.com/wifinitylabs/wifinity/internal/plan"
	"github.com/wifinitylabs/wifinity/internal/redis"
	"github.com/wifinitylabs/wifinity/internal/scheduler"
	"github.com/wifinitylabs/wifinity/internal/seed"
	"github.com/wifinitylabs/wifinity/internal/server"
	"github.com/wifinitylabs/wifinity/internal/subscriber"
	"github.com/wifinitylabs/wifinity/internal/subscription"
	"github.com/wifinitylabs/wifinity/internal/usage"
	"github.com/wifinitylabs/wifinity/pkg/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "wifinity",
		Short:   "Wifinity ISP billing CLI",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newServeCmd(), newSchedulerCmd(), newAllCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo plans and subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run the billing and overdue job scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			runScheduler()
			return nil
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Migrate, then run API server and scheduler together",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			runMonolith()
			return nil
		},
	}
}

// domainModules is everything the billing engine itself needs, shared by
// every long-running entrypoint.
func domainModules() fx.Option {
	return fx.Options(
		plan.Module,
		subscriber.Module,
		subscription.Module,
		usage.Module,
		invoice.Module,
		access.Module,
		payment.Module,
		billing.Module,
	)
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runSeed() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			return seed.EnsureDemoData(conn)
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		domainModules(),
		server.Module,
		fx.Invoke(server.Run),
	)
	app.Run()
}

func runScheduler() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		domainModules(),
		scheduler.Module,
		fx.Invoke(scheduler.Start),
	)
	app.Run()
}

func runMonolith() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		domainModules(),
		server.Module,
		fx.Invoke(server.Run),
		scheduler.Module,
		fx.Invoke(scheduler.Start),
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
