package scheduler

import (
	"context"
	"fmt"
	"time"

	"marketplace-be/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobDiscountInvalidate = "discount_invalidate"
	JobUpdateRates        = "update_rates"

	// DiscountSpec runs at minute 0 of every hour.
	DiscountSpec = "0 * * * *"
)

// DiscountInvalidator deactivates expired discounts and reports how many.
type DiscountInvalidator interface {
	InvalidateDiscounts(ctx context.Context) (int64, error)
}

// RateRefresher refreshes the exchange rate. Failures are handled inside.
type RateRefresher interface {
	Refresh(ctx context.Context)
}

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		ctx:  ctx,
	}
}

// Register adds both marketplace jobs. rateInterval <= 0 disables the rate job.
func (s *Scheduler) Register(discounts DiscountInvalidator, rates RateRefresher, rateInterval time.Duration) error {
	if _, err := s.cron.AddFunc(DiscountSpec, func() {
		RunDiscountInvalidate(s.ctx, discounts)
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", JobDiscountInvalidate, err)
	}

	if rateInterval <= 0 {
		return nil
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", rateInterval), func() {
		RunUpdateRates(s.ctx, rates)
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", JobUpdateRates, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.L().Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.L().Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func RunDiscountInvalidate(ctx context.Context, d DiscountInvalidator) {
	log := logger.FromCtx(ctx).With(zap.String("job", JobDiscountInvalidate))
	start := time.Now()

	n, err := d.InvalidateDiscounts(ctx)
	if err != nil {
		log.Error("job failed", zap.Error(err))
		return
	}
	log.Info("job finished",
		zap.Int64("expired", n),
		zap.Duration("duration", time.Since(start)),
	)
}

func RunUpdateRates(ctx context.Context, r RateRefresher) {
	log := logger.FromCtx(ctx).With(zap.String("job", JobUpdateRates))
	start := time.Now()

	r.Refresh(ctx)
	log.Info("job finished", zap.Duration("duration", time.Since(start)))
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
