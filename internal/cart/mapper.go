package cart

import "marketplace-be/internal/pricing"

type LineDTO struct {
	ListingID   int64         `json:"listing_id"`
	ProductName string        `json:"product_name"`
	ShopID      int64         `json:"shop_id"`
	ShopName    string        `json:"shop_name"`
	Quantity    int           `json:"quantity"`
	CountLeft   int           `json:"count_left"`
	IsActive    bool          `json:"is_active"`
	Price       pricing.Money `json:"price"`
	Subtotal    pricing.Money `json:"subtotal"`
}

type CartDTO struct {
	Items         []LineDTO     `json:"items"`
	TotalQuantity int           `json:"total_quantity"`
	TotalPrice    pricing.Money `json:"total_price"`
	TotalPriceRUB pricing.Money `json:"total_price_rub"`
}

func ToLineDTO(l Line, conv *pricing.Converter, currency pricing.Currency) LineDTO {
	return LineDTO{
		ListingID:   l.Listing.ID,
		ProductName: l.Listing.Name(),
		ShopID:      l.Listing.Shop.ID,
		ShopName:    l.Listing.Shop.Name,
		Quantity:    l.Quantity,
		CountLeft:   l.Listing.CountLeft,
		IsActive:    l.Listing.Available(),
		Price:       conv.Convert(l.Price, currency),
		Subtotal:    conv.Convert(l.Subtotal(), currency),
	}
}

func ToLineDTOs(lines []Line, conv *pricing.Converter, currency pricing.Currency) []LineDTO {
	out := make([]LineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, ToLineDTO(l, conv, currency))
	}
	return out
}

func ToCartDTO(c *Cart, lines []Line, conv *pricing.Converter, currency pricing.Currency) *CartDTO {
	return &CartDTO{
		Items:         ToLineDTOs(lines, conv, currency),
		TotalQuantity: c.TotalQuantity(),
		TotalPrice:    c.TotalPrice(conv, currency),
		TotalPriceRUB: c.TotalPriceRUB(),
	}
}
