package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wifinitylabs/wifinity/internal/clock"
	subscriptiondomain "github.com/wifinitylabs/wifinity/internal/subscription/domain"
	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID            *snowflake.Node
	clock            clock.Clock
	repo             usagedomain.Repository
	subscriptionRepo subscriptiondomain.Repository
}

type ServiceParam struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	Repo             usagedomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID:            p.GenID,
		clock:            p.Clock,
		repo:             p.Repo,
		subscriptionRepo: p.SubscriptionRepo,
	}
}

// Ingest appends one metering record and accrues the subscription's usage
// counters in the same transaction.
func (s *Service) Ingest(ctx context.Context, req usagedomain.IngestRequest) (*usagedomain.UsageRecord, error) {
	subID, err := parseID(req.SubscriptionID)
	if err != nil {
		return nil, usagedomain.ErrInvalidSubscription
	}
	if req.RxBytes < 0 || req.TxBytes < 0 {
		return nil, usagedomain.ErrNegativeBytes
	}

	recordedAt := req.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.clock.Now(ctx)
	}

	sub, err := s.subscriptionRepo.FindByID(ctx, s.db, subID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}

	rec := &usagedomain.UsageRecord{
		ID:             s.genID.Generate(),
		SubscriptionID: subID,
		RecordedAt:     recordedAt.UTC(),
		RxBytes:        req.RxBytes,
		TxBytes:        req.TxBytes,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, rec); err != nil {
			return err
		}
		return s.subscriptionRepo.AccrueUsage(ctx, tx, subID, req.RxBytes+req.TxBytes, req.Hours)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("usage ingested",
		zap.String("subscription_id", subID.String()),
		zap.Int64("rx_bytes", req.RxBytes),
		zap.Int64("tx_bytes", req.TxBytes),
	)
	return rec, nil
}

func (s *Service) BytesInPeriod(ctx context.Context, subscriptionID snowflake.ID, start, end time.Time) (int64, error) {
	return s.repo.SumRange(ctx, s.db, subscriptionID, start, end)
}

func parseID(raw string) (snowflake.ID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, usagedomain.ErrInvalidSubscription
	}
	return snowflake.ID(n), nil
}
