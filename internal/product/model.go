package product

import (
	"marketplace-be/internal/pricing"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Shop struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Listing is a product offered by one shop, with that shop's stock and price.
type Listing struct {
	ID        int64
	Product   Product
	Shop      Shop
	CountLeft int
	CountSold int
	Price     decimal.Decimal
	IsActive  bool
	Discount  *pricing.Discount
}

// EffectivePrice is the RUB unit price after the listing's discount.
func (l *Listing) EffectivePrice() pricing.Money {
	return pricing.Rub(pricing.EffectivePrice(l.Price, l.Discount))
}

// Available reports whether both the listing and its product are on sale.
func (l *Listing) Available() bool {
	return l.IsActive && l.Product.IsActive
}

func (l *Listing) Name() string {
	return l.Product.Name
}
