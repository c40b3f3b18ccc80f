package order

import (
	"fmt"
	"time"

	"marketplace-be/internal/cart"
	"marketplace-be/internal/payment"
	"marketplace-be/internal/pricing"
	"marketplace-be/internal/user"
)

type DeliveryCategoryDTO struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Codename string        `json:"codename"`
	Price    pricing.Money `json:"price"`
}

type PaymentCategoryDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type CheckoutPageDTO struct {
	Initial            user.CheckoutDefaults `json:"initial"`
	DeliveryCategories []DeliveryCategoryDTO `json:"delivery_categories"`
	PaymentCategories  []PaymentCategoryDTO  `json:"payment_categories"`
	Cart               *cart.CartDTO         `json:"cart"`
	IsFreeDelivery     bool                  `json:"is_free_delivery"`
}

type DeliveryInfoDTO struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Codename string `json:"codename"`
}

type OrderItemDTO struct {
	ListingID   int64         `json:"listing_id"`
	ProductName string        `json:"product_name"`
	Quantity    int           `json:"quantity"`
	Price       pricing.Money `json:"price"`
	Subtotal    pricing.Money `json:"subtotal"`
	IsActive    bool          `json:"is_active"`
}

type OrderDetailDTO struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Email            string         `json:"email"`
	City             string         `json:"city"`
	Address          string         `json:"address"`
	Comment          string         `json:"comment,omitempty"`
	Status           Status         `json:"status"`
	IsCanceled       bool           `json:"is_canceled"`
	IsFreeDelivery   bool           `json:"is_free_delivery"`
	DeliveryCategory string         `json:"delivery_category"`
	PaymentCategory  string         `json:"payment_category"`
	IsPassed         bool           `json:"is_passed"`
	TotalPrice       pricing.Money  `json:"total_price"`
	Items            []OrderItemDTO `json:"items"`
	CanPay           bool           `json:"can_pay"`
	PaymentPage      string         `json:"payment_page,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type OrderSummaryDTO struct {
	ID               int64         `json:"id"`
	Status           Status        `json:"status"`
	StatusLabel      string        `json:"status_label"`
	IsCanceled       bool          `json:"is_canceled"`
	DeliveryCategory string        `json:"delivery_category"`
	PaymentCategory  string        `json:"payment_category"`
	IsPassed         bool          `json:"is_passed"`
	TotalPrice       pricing.Money `json:"total_price"`
	DetailURL        string        `json:"detail_url"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type OrderListDTO struct {
	Orders []OrderSummaryDTO `json:"orders"`
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
}

func ToOrderSummaryDTO(o Order, conv *pricing.Converter, currency pricing.Currency) OrderSummaryDTO {
	dto := OrderSummaryDTO{
		ID:               o.ID,
		Status:           o.Status,
		StatusLabel:      o.Status.Label(),
		IsCanceled:       o.IsCanceled,
		DeliveryCategory: o.DeliveryCategory.Name,
		DetailURL:        fmt.Sprintf("/order/%d/", o.ID),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.Payment != nil {
		dto.PaymentCategory = string(o.Payment.Category)
		dto.IsPassed = o.Payment.IsPassed
		dto.TotalPrice = conv.Convert(pricing.Rub(o.Payment.TotalPrice), currency).Rounded()
	}
	return dto
}

func ToDeliveryCategoryDTOs(cats []DeliveryCategory, conv *pricing.Converter, currency pricing.Currency) []DeliveryCategoryDTO {
	out := make([]DeliveryCategoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, DeliveryCategoryDTO{
			ID:       c.ID,
			Name:     c.Name,
			Codename: c.Codename,
			Price:    conv.Convert(pricing.Rub(c.Price), currency).Rounded(),
		})
	}
	return out
}

func ToPaymentCategoryDTOs() []PaymentCategoryDTO {
	out := make([]PaymentCategoryDTO, 0, len(payment.Categories))
	for _, c := range payment.Categories {
		out = append(out, PaymentCategoryDTO{Value: string(c), Label: c.Label()})
	}
	return out
}

func ToOrderDetailDTO(o *Order, items []OrderItem, conv *pricing.Converter, currency pricing.Currency) *OrderDetailDTO {
	dto := &OrderDetailDTO{
		ID:               o.ID,
		Name:             o.Name,
		Phone:            o.Phone,
		Email:            o.Email,
		City:             o.City,
		Address:          o.Address,
		Status:           o.Status,
		IsCanceled:       o.IsCanceled,
		IsFreeDelivery:   o.IsFreeDelivery,
		DeliveryCategory: o.DeliveryCategory.Name,
		CreatedAt:        o.CreatedAt,
		Items:            make([]OrderItemDTO, 0, len(items)),
	}
	if o.Comment != nil {
		dto.Comment = *o.Comment
	}
	if o.Payment != nil {
		dto.PaymentCategory = string(o.Payment.Category)
		dto.IsPassed = o.Payment.IsPassed
		dto.TotalPrice = conv.Convert(pricing.Rub(o.Payment.TotalPrice), currency).Rounded()
	}

	for _, it := range items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ListingID:   it.ListingID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       conv.Convert(pricing.Rub(it.PriceOnAddMoment), currency).Rounded(),
			Subtotal:    conv.Convert(pricing.Rub(it.Subtotal()), currency).Rounded(),
			IsActive:    it.ListingActive,
		})
	}
	return dto
}
