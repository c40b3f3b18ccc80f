package payment

import "marketplace-be/internal/pricing"

type PageDTO struct {
	OrderID      int64         `json:"order_id"`
	Category     Category      `json:"category"`
	Label        string        `json:"label"`
	Amount       pricing.Money `json:"amount"`
	IsPassed     bool          `json:"is_passed"`
	Instructions []string      `json:"instructions"`
}

type ProgressDTO struct {
	OrderID    int64 `json:"order_id"`
	IsPassed   bool  `json:"is_passed"`
	HasAccount bool  `json:"has_account"`
}

func ToPageDTO(item *Item, category Category, amount pricing.Money) *PageDTO {
	return &PageDTO{
		OrderID:  item.OrderID,
		Category: category,
		Label:    category.Label(),
		Amount:   amount,
		IsPassed: item.IsPassed,
		Instructions: InjectVariables(GetInstructions(category), InstructionVars{
			"amount": amount.String(),
		}),
	}
}

func ToProgressDTO(item *Item) *ProgressDTO {
	return &ProgressDTO{
		OrderID:    item.OrderID,
		IsPassed:   item.IsPassed,
		HasAccount: item.HasAccount(),
	}
}
