package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	"github.com/wifinitylabs/wifinity/internal/clock"
	"github.com/wifinitylabs/wifinity/internal/config"
)

// Scheduler owns the recurring jobs: the daily billing pass and the hourly
// overdue sweep. When several instances run, a Redis lock keeps each firing
// down to a single runner; without Redis every instance runs the jobs, which
// is safe (the cursor CAS makes duplicate passes no-ops) but noisier.
type Scheduler struct {
	log   *zap.Logger
	cfg   config.Config
	clock clock.Clock

	billing billingdomain.Service
	locker  *Locker

	cron *cron.Cron
}

type Param struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Clock   clock.Clock
	Billing billingdomain.Service
	Redis   *redis.Client `optional:"true"`
}

func New(p Param) (*Scheduler, error) {
	s := &Scheduler{
		log:     p.Log.Named("scheduler"),
		cfg:     p.Cfg,
		clock:   p.Clock,
		billing: p.Billing,
		locker:  NewLocker(p.Redis),
		cron:    cron.New(),
	}

	if _, err := s.cron.AddFunc(p.Cfg.BillingSchedule, func() {
		s.RunBillingJob(context.Background())
	}); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(p.Cfg.OverdueSchedule, func() {
		s.RunOverdueJob(context.Background())
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// RunForever starts the cron loop and blocks until the context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	s.log.Info("scheduler started",
		zap.String("billing_schedule", s.cfg.BillingSchedule),
		zap.String("overdue_schedule", s.cfg.OverdueSchedule),
	)
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) RunBillingJob(ctx context.Context) {
	now := s.clock.Now(ctx)
	s.withLock(ctx, "billing_pass", now, func() {
		report, err := s.billing.RunBillingPass(ctx, now)
		if err != nil {
			s.log.Error("billing job failed", zap.Error(err))
			return
		}
		s.log.Info("billing job complete",
			zap.Int("processed", report.Processed),
			zap.Int("invoices_created", report.InvoicesCreated),
			zap.Int("failures", report.Failures),
		)
	})
}

func (s *Scheduler) RunOverdueJob(ctx context.Context) {
	now := s.clock.Now(ctx)
	s.withLock(ctx, "overdue_sweep", now, func() {
		flipped, err := s.billing.SweepOverdue(ctx, now)
		if err != nil {
			s.log.Error("overdue job failed", zap.Error(err))
			return
		}
		if flipped > 0 {
			s.log.Info("overdue job complete", zap.Int("flipped", flipped))
		}
	})
}

func (s *Scheduler) withLock(ctx context.Context, job string, now time.Time, fn func()) {
	acquired, release, err := s.locker.Acquire(ctx, job, now)
	if err != nil {
		s.log.Warn("job lock unavailable, running anyway",
			zap.String("job", job),
			zap.Error(err),
		)
		fn()
		return
	}
	if !acquired {
		s.log.Info("job already running elsewhere", zap.String("job", job))
		return
	}
	defer release()
	fn()
}
