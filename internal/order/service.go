package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-be/internal/cart"
	"marketplace-be/internal/events"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/payment"
	"marketplace-be/internal/pricing"
	"marketplace-be/internal/product"
	"marketplace-be/internal/session"
	"marketplace-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	CheckoutPage(ctx context.Context, s *session.Session, viewer Viewer, currency pricing.Currency) (*CheckoutPageDTO, error)
	Checkout(ctx context.Context, s *session.Session, viewer Viewer, in CheckoutInput) (*CheckoutResult, error)
	GetOrderDetail(ctx context.Context, s *session.Session, viewer Viewer, orderID int64, currency pricing.Currency) (*OrderDetailDTO, error)
	ListOrders(ctx context.Context, viewer Viewer, page, limit int, currency pricing.Currency) (*OrderListDTO, error)
	DeliveryInfo(ctx context.Context, id int64, currency pricing.Currency) (*DeliveryInfoDTO, error)
}

type service struct {
	repo      Repository
	listings  cart.ListingReader
	profiles  user.Service
	converter *pricing.Converter
	publisher events.Publisher
	metrics   *metrics.Registry
	threshold decimal.Decimal
	now       func() time.Time
}

func NewService(
	repo Repository,
	listings cart.ListingReader,
	profiles user.Service,
	converter *pricing.Converter,
	publisher events.Publisher,
	m *metrics.Registry,
	freeDeliveryThreshold decimal.Decimal,
) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &service{
		repo:      repo,
		listings:  listings,
		profiles:  profiles,
		converter: converter,
		publisher: publisher,
		metrics:   m,
		threshold: freeDeliveryThreshold,
		now:       time.Now,
	}
}

// freeDeliveryEligible reports whether the goods qualify for free delivery:
// the total reaches the threshold and every line comes from one shop.
func (s *service) freeDeliveryEligible(total decimal.Decimal, shopIDs []int64) bool {
	if len(shopIDs) == 0 || total.LessThan(s.threshold) {
		return false
	}
	for _, id := range shopIDs[1:] {
		if id != shopIDs[0] {
			return false
		}
	}
	return true
}

func (s *service) CheckoutPage(ctx context.Context, sess *session.Session, viewer Viewer, currency pricing.Currency) (*CheckoutPageDTO, error) {
	c, err := cart.FromSession(sess)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}

	ids := c.IDs()
	listings, err := s.listings.GetListings(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]cart.Line, 0, len(ids))
	shopIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		l, ok := listings[id]
		if !ok {
			continue
		}
		item, _ := c.Item(id)
		lines = append(lines, cart.Line{Listing: l, Quantity: item.Quantity, Price: pricing.Rub(item.Price)})
		shopIDs = append(shopIDs, l.Shop.ID)
	}

	cats, err := s.repo.ListActiveDeliveryCategories(ctx)
	if err != nil {
		return nil, err
	}

	initial, err := s.profiles.CheckoutDefaults(ctx, viewer.UserID, viewer.Email)
	if err != nil {
		return nil, err
	}

	return &CheckoutPageDTO{
		Initial:            initial,
		DeliveryCategories: ToDeliveryCategoryDTOs(cats, s.converter, currency),
		PaymentCategories:  ToPaymentCategoryDTOs(),
		Cart:               cart.ToCartDTO(c, lines, s.converter, currency),
		IsFreeDelivery:     s.freeDeliveryEligible(c.TotalPriceRUB().Amount, shopIDs),
	}, nil
}

// Checkout turns the session cart into an order with a pending payment. Stock
// and availability problems come back as form errors under
// NotEnoughGoodsField and nothing is written.
func (s *service) Checkout(ctx context.Context, sess *session.Session, viewer Viewer, in CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Int64("buyer_id", viewer.UserID),
	)

	c, err := cart.FromSession(sess)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}

	dc, err := s.repo.GetDeliveryCategory(ctx, in.DeliveryCategoryID)
	if err != nil && !errors.Is(err, ErrDeliveryCategoryNotFound) {
		log.Error("failed to load delivery category", zap.Error(err))
		return nil, err
	}
	if dc == nil || !dc.IsActive {
		s.metrics.CheckoutsRejected.Inc()
		errs := FieldErrors{}
		errs.Add("delivery_category", "Select a valid choice.")
		return &CheckoutResult{Errors: errs}, nil
	}

	ids := c.IDs()
	listings, err := s.listings.GetListings(ctx, ids)
	if err != nil {
		log.Error("failed to load cart listings", zap.Error(err))
		return nil, err
	}

	var (
		items    = make([]OrderItem, 0, len(ids))
		shopIDs  = make([]int64, 0, len(ids))
		messages []string
		goods    = decimal.Zero
	)
	for _, id := range ids {
		l, ok := listings[id]
		if !ok {
			continue
		}
		entry, _ := c.Item(id)

		if !l.Available() {
			messages = append(messages, fmt.Sprintf("%s is not active product", l.Name()))
		}
		if l.CountLeft < entry.Quantity {
			messages = append(messages, fmt.Sprintf("%s: in stock - %d, in cart - %d", l.Name(), l.CountLeft, entry.Quantity))
			continue
		}

		item := OrderItem{
			ListingID:        id,
			ProductName:      l.Name(),
			ShopID:           l.Shop.ID,
			ListingActive:    l.Available(),
			PriceOnAddMoment: entry.Price,
			Quantity:         entry.Quantity,
		}
		items = append(items, item)
		shopIDs = append(shopIDs, l.Shop.ID)
		goods = goods.Add(item.Subtotal())
	}

	if len(messages) > 0 {
		s.metrics.CheckoutsRejected.Inc()
		log.Info("checkout rejected", zap.Strings("reasons", messages))
		return &CheckoutResult{Errors: FieldErrors{NotEnoughGoodsField: messages}}, nil
	}
	if len(items) == 0 {
		return nil, cart.ErrCartEmpty
	}

	free := in.IsFreeDelivery &&
		dc.Codename == RegularDeliveryCodename &&
		s.freeDeliveryEligible(goods, shopIDs)

	total := goods
	if !free {
		total = total.Add(dc.Price)
	}

	buyerID := viewer.UserID
	o := &Order{
		BuyerID:          &buyerID,
		DeliveryCategory: *dc,
		Name:             in.Name,
		Phone:            NormalizePhone(in.Phone),
		Email:            in.Email,
		City:             in.City,
		Address:          in.Address,
		IsFreeDelivery:   free,
		Status:           StatusNotPaid,
	}
	if in.Comment != "" {
		comment := in.Comment
		o.Comment = &comment
	}

	category := payment.Category(in.PaymentCategory)
	p := &payment.Item{Category: category, TotalPrice: total}

	if err := s.repo.CreateOrder(ctx, o, items, p); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	sess.SetOrderID(o.ID)
	s.metrics.CheckoutsSucceeded.Inc()
	s.publisher.Publish(ctx, events.OrderPlaced{
		OrderID:         o.ID,
		BuyerID:         buyerID,
		PaymentCategory: string(category),
		TotalPrice:      total,
		IsFreeDelivery:  free,
		ItemCount:       len(items),
		PlacedAt:        s.now(),
	})

	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("total", total.StringFixed(2)),
		zap.Bool("free_delivery", free),
	)

	return &CheckoutResult{OrderID: o.ID, Redirect: category.PaymentPath()}, nil
}

// GetOrderDetail shows an order to its buyer once a payment was attempted,
// and to staff at any time. Viewing also decides whether the session may pay
// for the order.
func (s *service) GetOrderDetail(ctx context.Context, sess *session.Session, viewer Viewer, orderID int64, currency pricing.Currency) (*OrderDetailDTO, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	owner := o.BuyerID != nil && *o.BuyerID == viewer.UserID && o.Payment.HasAccount()
	if !owner && !viewer.IsStaff {
		logger.FromCtx(ctx).Warn("order access denied",
			zap.String("layer", "service"),
			zap.String("method", "GetOrderDetail"),
			zap.Int64("order_id", orderID),
			zap.Int64("user_id", viewer.UserID),
		)
		return nil, ErrForbidden
	}

	items, err := s.repo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	dto := ToOrderDetailDTO(o, items, s.converter, currency)

	switch {
	case o.Payment.IsPassed:
		sess.ClearOrderID()
	case allActive(items):
		sess.SetOrderID(o.ID)
		dto.CanPay = true
		dto.PaymentPage = o.Payment.Category.PageName()
	default:
		sess.ClearOrderID()
	}

	return dto, nil
}

// ListOrders is the buyer's order history, most recently updated first.
// page starts at 1; out of range page and limit values fall back to defaults.
func (s *service) ListOrders(ctx context.Context, viewer Viewer, page, limit int, currency pricing.Currency) (*OrderListDTO, error) {
	if viewer.UserID == 0 {
		return nil, ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	orders, err := s.repo.ListOrders(ctx, viewer.UserID, limit, (page-1)*limit)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders",
			zap.String("layer", "service"),
			zap.String("method", "ListOrders"),
			zap.Error(err),
		)
		return nil, err
	}

	dto := &OrderListDTO{
		Orders: make([]OrderSummaryDTO, 0, len(orders)),
		Page:   page,
		Limit:  limit,
	}
	for _, o := range orders {
		dto.Orders = append(dto.Orders, ToOrderSummaryDTO(o, s.converter, currency))
	}
	return dto, nil
}

func allActive(items []OrderItem) bool {
	for _, it := range items {
		if !it.ListingActive {
			return false
		}
	}
	return true
}

func (s *service) DeliveryInfo(ctx context.Context, id int64, currency pricing.Currency) (*DeliveryInfoDTO, error) {
	dc, err := s.repo.GetDeliveryCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	price := s.converter.Convert(pricing.Rub(dc.Price), currency)
	return &DeliveryInfoDTO{
		Title:    dc.Name,
		Price:    price.String(),
		Codename: dc.Codename,
	}, nil
}

var _ cart.ListingReader = (product.Service)(nil)
