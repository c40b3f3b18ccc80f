package payment

import (
	"context"
	"time"

	"marketplace-be/internal/cart"
	"marketplace-be/internal/events"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/pricing"
	"marketplace-be/internal/session"

	"go.uber.org/zap"
)

type Service interface {
	PaymentPage(ctx context.Context, s *session.Session, category Category, currency pricing.Currency) (*PageDTO, error)
	Pay(ctx context.Context, s *session.Session, account string) (string, error)
	Progress(ctx context.Context, s *session.Session) (*ProgressDTO, error)
}

type service struct {
	repo      Repository
	converter *pricing.Converter
	publisher events.Publisher
	metrics   *metrics.Registry
	now       func() time.Time
}

func NewService(repo Repository, converter *pricing.Converter, publisher events.Publisher, m *metrics.Registry) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &service{
		repo:      repo,
		converter: converter,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *service) PaymentPage(ctx context.Context, sess *session.Session, category Category, currency pricing.Currency) (*PageDTO, error) {
	if !category.Valid() {
		return nil, ErrUnknownCategory
	}

	orderID, ok := sess.OrderID()
	if !ok {
		return nil, ErrNoOrderInSession
	}

	item, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amount := s.converter.Convert(pricing.Rub(item.TotalPrice), currency)
	return ToPageDTO(item, category, amount), nil
}

// Pay runs the simulator against the session's order and returns where the
// buyer goes next. Once the session has an order the cart is dropped first,
// so it is gone whatever the outcome.
func (s *service) Pay(ctx context.Context, sess *session.Session, account string) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Pay"),
	)

	orderID, ok := sess.OrderID()
	if !ok {
		return "", ErrNoOrderInSession
	}
	cart.Clear(sess)
	log = log.With(zap.Int64("order_id", orderID))

	if !ValidAccountLength(account) {
		s.metrics.PaymentsRejected.Inc()
		log.Info("payment rejected", zap.Error(ErrInvalidAccount))
		return "/", nil
	}

	res, err := s.repo.RecordAttempt(ctx, orderID, account, AccountPasses(account))
	if err != nil {
		log.Error("failed to record payment attempt", zap.Error(err))
		return "", err
	}

	if res.AlreadyPassed {
		log.Info("payment already passed, attempt ignored")
		return ProgressPath, nil
	}

	if res.Passed {
		s.metrics.PaymentsPassed.Inc()
	} else {
		s.metrics.PaymentsFailed.Inc()
	}

	s.publisher.Publish(ctx, events.PaymentAttempted{
		OrderID:       res.OrderID,
		PaymentID:     res.PaymentID,
		Passed:        res.Passed,
		StockShortage: res.StockShortage,
		AttemptedAt:   s.now(),
	})

	log.Info("payment attempted",
		zap.Bool("passed", res.Passed),
		zap.Bool("stock_shortage", res.StockShortage),
	)
	return ProgressPath, nil
}

func (s *service) Progress(ctx context.Context, sess *session.Session) (*ProgressDTO, error) {
	orderID, ok := sess.OrderID()
	if !ok {
		return nil, ErrNoOrderInSession
	}
	if sess.Has(session.KeyCart) {
		return nil, ErrCartStillPresent
	}

	item, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToProgressDTO(item), nil
}
