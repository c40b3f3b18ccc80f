package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace-be/internal/events"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Converter holds the RUB->USD rate in memory and converts between the two
// currencies. The rate is replaced only by a successful Refresh.
type Converter struct {
	mu        sync.RWMutex
	rate      decimal.Decimal
	updatedAt time.Time

	source    RateSource
	repo      RateRepository
	publisher events.Publisher
	metrics   *metrics.Registry
	now       func() time.Time
}

func NewConverter(source RateSource, repo RateRepository, publisher events.Publisher, m *metrics.Registry) *Converter {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Converter{
		rate:      DefaultRate,
		source:    source,
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// NewStaticConverter returns a converter pinned to rate, for tests and tools.
func NewStaticConverter(rate decimal.Decimal) *Converter {
	c := NewConverter(nil, nil, nil, nil)
	c.rate = rate
	return c
}

func (c *Converter) Rate() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

func (c *Converter) setRate(rate decimal.Decimal, at time.Time) {
	c.mu.Lock()
	c.rate = rate
	c.updatedAt = at
	c.mu.Unlock()
}

// Convert returns m expressed in currency to. RUB->USD multiplies by the
// rate, USD->RUB divides.
func (c *Converter) Convert(m Money, to Currency) Money {
	if m.Currency == to || !to.Valid() {
		return m
	}

	rate := c.Rate()
	switch {
	case m.Currency == RUB && to == USD:
		return Money{Amount: m.Amount.Mul(rate), Currency: USD}
	case m.Currency == USD && to == RUB:
		return Money{Amount: m.Amount.DivRound(rate, 8), Currency: RUB}
	}
	return m
}

// Load seeds the in-memory rate from the last persisted value.
func (c *Converter) Load(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}

	rate, at, err := c.repo.GetRate(ctx, RUB, USD)
	if errors.Is(err, ErrRateNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	c.setRate(rate, at)
	logger.FromCtx(ctx).Info("exchange rate loaded",
		zap.String("rate", rate.String()),
		zap.Time("updated_at", at),
	)
	return nil
}

// Refresh fetches a new rate. A failed fetch keeps the current rate, is logged
// and counted, and is not returned to the caller. A converter without a
// source keeps its fixed rate.
func (c *Converter) Refresh(ctx context.Context) {
	if c.source == nil {
		return
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Converter.Refresh"),
	)
	now := c.now()

	rate, err := c.source.Fetch(ctx)
	if err != nil {
		c.metrics.RateFallbacks.Inc()
		current := c.Rate()
		log.Warn("exchange rate fetch failed, keeping last known rate",
			zap.Bool("rate_fallback", true),
			zap.String("rate", current.String()),
			zap.Error(err),
		)
		c.publisher.Publish(ctx, events.RateRefreshed{
			Base: string(RUB), Target: string(USD), Rate: current, Fallback: true, UpdatedAt: now,
		})
		return
	}

	c.setRate(rate, now)

	if c.repo != nil {
		if err := c.repo.SaveRate(ctx, RUB, USD, rate, now); err != nil {
			log.Error("failed to persist exchange rate", zap.Error(err))
		}
	}

	log.Info("exchange rate refreshed", zap.String("rate", rate.String()))
	c.publisher.Publish(ctx, events.RateRefreshed{
		Base: string(RUB), Target: string(USD), Rate: rate, UpdatedAt: now,
	})
}
