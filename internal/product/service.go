package product

import (
	"context"
	"time"

	"marketplace-be/internal/events"
	"marketplace-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetListing(ctx context.Context, id int64) (*Listing, error)
	GetListings(ctx context.Context, ids []int64) (map[int64]*Listing, error)
	InvalidateDiscounts(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{repo: repo, publisher: publisher, now: time.Now}
}

func (s *service) GetListing(ctx context.Context, id int64) (*Listing, error) {
	return s.repo.GetListing(ctx, id)
}

func (s *service) GetListings(ctx context.Context, ids []int64) (map[int64]*Listing, error) {
	return s.repo.GetListings(ctx, ids)
}

// InvalidateDiscounts is the hourly sweep. Running it twice is harmless: the
// second run finds nothing left to expire.
func (s *service) InvalidateDiscounts(ctx context.Context) (int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InvalidateDiscounts"),
	)

	now := s.now()
	count, err := s.repo.ExpireDiscounts(ctx, now)
	if err != nil {
		log.Error("failed to expire discounts", zap.Error(err))
		return 0, err
	}

	log.Info("discounts expired", zap.Int64("count", count))
	if count > 0 {
		s.publisher.Publish(ctx, events.DiscountsExpired{Count: count, ExpiredAt: now})
	}
	return count, nil
}
