package events

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	NameOrderPlaced      = "order.placed"
	NamePaymentAttempted = "payment.attempted"
	NameDiscountsExpired = "discounts.expired"
	NameRateRefreshed    = "rate.refreshed"
)

// Event is a fact about a committed write.
type Event interface {
	Name() string
	// Key identifies the aggregate the event belongs to.
	Key() string
}

type OrderPlaced struct {
	OrderID         int64           `json:"order_id"`
	BuyerID         int64           `json:"buyer_id"`
	PaymentCategory string          `json:"payment_category"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	IsFreeDelivery  bool            `json:"is_free_delivery"`
	ItemCount       int             `json:"item_count"`
	PlacedAt        time.Time       `json:"placed_at"`
}

func (OrderPlaced) Name() string  { return NameOrderPlaced }
func (e OrderPlaced) Key() string { return strconv.FormatInt(e.OrderID, 10) }

type PaymentAttempted struct {
	OrderID       int64     `json:"order_id"`
	PaymentID     int64     `json:"payment_id"`
	Passed        bool      `json:"passed"`
	StockShortage bool      `json:"stock_shortage,omitempty"`
	AttemptedAt   time.Time `json:"attempted_at"`
}

func (PaymentAttempted) Name() string  { return NamePaymentAttempted }
func (e PaymentAttempted) Key() string { return strconv.FormatInt(e.OrderID, 10) }

type DiscountsExpired struct {
	Count     int64     `json:"count"`
	ExpiredAt time.Time `json:"expired_at"`
}

func (DiscountsExpired) Name() string { return NameDiscountsExpired }
func (DiscountsExpired) Key() string  { return "discounts" }

type RateRefreshed struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	Fallback  bool            `json:"fallback"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (RateRefreshed) Name() string  { return NameRateRefreshed }
func (e RateRefreshed) Key() string { return e.Base + "-" + e.Target }
