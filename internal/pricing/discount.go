package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is a shop promotion. Exactly one of Percentage and Amount is set.
type Discount struct {
	ID         int64
	ShopID     int64
	Name       string
	DateStart  time.Time
	DateEnd    *time.Time
	IsActive   bool
	Percentage *int32
	Amount     *decimal.Decimal
	MinCost    *decimal.Decimal
}

// Expired reports whether the sweep should deactivate the discount at now.
func (d *Discount) Expired(now time.Time) bool {
	return d.IsActive && d.DateEnd != nil && !d.DateEnd.After(now)
}

// EffectivePrice applies an optional discount to a base RUB price. A nil or
// inactive discount leaves the price unchanged. The result never goes below
// the discount's min_cost, nor below zero.
func EffectivePrice(base decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil || !d.IsActive {
		return base
	}

	price := base
	switch {
	case d.Percentage != nil:
		pct := decimal.NewFromInt32(*d.Percentage)
		price = base.Sub(base.Mul(pct).Div(hundred))
	case d.Amount != nil:
		price = base.Sub(*d.Amount)
	}

	if d.MinCost != nil && price.LessThan(*d.MinCost) {
		price = *d.MinCost
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	return price
}
