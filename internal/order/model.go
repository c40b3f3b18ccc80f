package order

import (
	"time"

	"marketplace-be/internal/payment"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNotPaid  Status = "np"
	StatusPaid     Status = "p"
	StatusDelivery Status = "d"
)

// Label is the buyer-facing name of a status.
func (s Status) Label() string {
	switch s {
	case StatusPaid:
		return "Paid"
	case StatusNotPaid:
		return "Not paid"
	case StatusDelivery:
		return "Delivery type"
	}
	return string(s)
}

// Order history paging.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// RegularDeliveryCodename is the only delivery tier that can be free.
const RegularDeliveryCodename = "regular-delivery"

type DeliveryCategory struct {
	ID       int64
	Name     string
	IsActive bool
	Price    decimal.Decimal
	Codename string
}

type Order struct {
	ID               int64
	BuyerID          *int64
	DeliveryCategory DeliveryCategory
	Name             string
	Phone            string
	Email            string
	City             string
	Address          string
	Comment          *string
	IsFreeDelivery   bool
	Status           Status
	IsCanceled       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Payment          *payment.Item
}

// OrderItem is an order line. PriceOnAddMoment is the unit price captured by
// the cart and never changes afterwards.
type OrderItem struct {
	ID               int64
	OrderID          int64
	ListingID        int64
	ProductName      string
	ShopID           int64
	ListingActive    bool
	PriceOnAddMoment decimal.Decimal
	Quantity         int
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceOnAddMoment.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Viewer is whoever asks for an order page.
type Viewer struct {
	UserID  int64
	Email   string
	IsStaff bool
}

// CheckoutResult is either a redirect to the payment page or a set of form
// errors. Nothing is stored when Errors is non-empty.
type CheckoutResult struct {
	OrderID  int64
	Redirect string
	Errors   FieldErrors
}

func (r *CheckoutResult) Failed() bool {
	return len(r.Errors) > 0
}
