package cart

import (
	"context"
	"errors"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/pricing"
	"marketplace-be/internal/product"
	"marketplace-be/internal/session"

	"go.uber.org/zap"
)

const (
	ChangePlus  = "plus"
	ChangeMinus = "minus"
)

type ListingReader interface {
	GetListing(ctx context.Context, id int64) (*product.Listing, error)
	GetListings(ctx context.Context, ids []int64) (map[int64]*product.Listing, error)
}

type Service interface {
	Add(ctx context.Context, s *session.Session, listingID int64, quantity int) error
	Change(ctx context.Context, s *session.Session, listingID int64, change string) error
	Remove(ctx context.Context, s *session.Session, listingID int64) error
	Validate(ctx context.Context, s *session.Session) (*Cart, error)
	Lines(ctx context.Context, c *Cart) ([]Line, error)
	Summary(ctx context.Context, s *session.Session, currency pricing.Currency) (*CartDTO, error)
}

type service struct {
	listings  ListingReader
	converter *pricing.Converter
}

func NewService(listings ListingReader, converter *pricing.Converter) Service {
	return &service{listings: listings, converter: converter}
}

func (s *service) getListing(ctx context.Context, id int64) (*product.Listing, error) {
	l, err := s.listings.GetListing(ctx, id)
	if errors.Is(err, product.ErrListingNotFound) {
		return nil, ErrListingNotFound
	}
	return l, err
}

// Add increments the listing's quantity, capturing its price on first add.
func (s *service) Add(ctx context.Context, sess *session.Session, listingID int64, quantity int) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Add"),
		zap.Int64("listing_id", listingID),
	)

	l, err := s.getListing(ctx, listingID)
	if err != nil {
		log.Warn("cannot add listing to cart", zap.Error(err))
		return err
	}

	c, err := FromSession(sess)
	if err != nil {
		return err
	}
	c.Add(l, quantity, false)

	log.Debug("listing added to cart", zap.Int("quantity", quantity))
	return c.Save(sess)
}

// Change applies a plus or minus step. The listing must exist either way.
func (s *service) Change(ctx context.Context, sess *session.Session, listingID int64, change string) error {
	l, err := s.getListing(ctx, listingID)
	if err != nil {
		return err
	}

	c, err := FromSession(sess)
	if err != nil {
		return err
	}

	switch change {
	case ChangePlus:
		c.Add(l, 1, false)
	case ChangeMinus:
		c.Decrement(l.ID)
	default:
		return ErrUnknownChange
	}
	return c.Save(sess)
}

func (s *service) Remove(ctx context.Context, sess *session.Session, listingID int64) error {
	c, err := FromSession(sess)
	if err != nil {
		return err
	}
	if _, ok := c.Item(listingID); !ok {
		return nil
	}
	c.Remove(listingID)
	return c.Save(sess)
}

// Validate drops entries whose listing is gone or no longer on sale.
func (s *service) Validate(ctx context.Context, sess *session.Session) (*Cart, error) {
	c, err := FromSession(sess)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return c, nil
	}

	listings, err := s.listings.GetListings(ctx, c.IDs())
	if err != nil {
		return nil, err
	}

	dropped := 0
	for _, id := range c.IDs() {
		l, ok := listings[id]
		if ok && l.Available() {
			continue
		}
		c.Remove(id)
		dropped++
	}

	if dropped > 0 {
		logger.FromCtx(ctx).Info("unavailable listings dropped from cart",
			zap.String("layer", "service"),
			zap.String("method", "Validate"),
			zap.Int("dropped", dropped),
		)
		if err := c.Save(sess); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Lines joins the cart with live listings in id order. Entries whose listing
// no longer exists are skipped.
func (s *service) Lines(ctx context.Context, c *Cart) ([]Line, error) {
	ids := c.IDs()
	if len(ids) == 0 {
		return nil, nil
	}

	listings, err := s.listings.GetListings(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		l, ok := listings[id]
		if !ok {
			continue
		}
		item, _ := c.Item(id)
		lines = append(lines, Line{
			Listing:  l,
			Quantity: item.Quantity,
			Price:    pricing.Rub(item.Price),
		})
	}
	return lines, nil
}

func (s *service) Summary(ctx context.Context, sess *session.Session, currency pricing.Currency) (*CartDTO, error) {
	c, err := s.Validate(ctx, sess)
	if err != nil {
		return nil, err
	}

	lines, err := s.Lines(ctx, c)
	if err != nil {
		return nil, err
	}

	return ToCartDTO(c, lines, s.converter, currency), nil
}
