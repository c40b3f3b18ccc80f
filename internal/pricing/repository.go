package pricing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"marketplace-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RateRepository interface {
	GetRate(ctx context.Context, base, target Currency) (decimal.Decimal, time.Time, error)
	SaveRate(ctx context.Context, base, target Currency, rate decimal.Decimal, at time.Time) error
}

type rateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) GetRate(ctx context.Context, base, target Currency) (decimal.Decimal, time.Time, error) {
	var (
		rate      decimal.Decimal
		updatedAt time.Time
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT rate, updated_at
		FROM exchange_rates
		WHERE base = $1 AND target = $2
	`, base, target).Scan(&rate, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, time.Time{}, ErrRateNotFound
	}
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return rate, updatedAt, nil
}

func (r *rateRepository) SaveRate(ctx context.Context, base, target Currency, rate decimal.Decimal, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (base, target, rate, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (base, target)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at
	`, base, target, rate, at)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to save exchange rate",
			zap.String("layer", "repository"),
			zap.String("method", "SaveRate"),
			zap.Error(err),
		)
	}
	return err
}
