package payment

import (
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryBankCard Category = "bank-card"
	CategorySomeOne  Category = "some-one"
)

var Categories = []Category{CategoryBankCard, CategorySomeOne}

func (c Category) Valid() bool {
	return c == CategoryBankCard || c == CategorySomeOne
}

func (c Category) Label() string {
	switch c {
	case CategoryBankCard:
		return "Bank card"
	case CategorySomeOne:
		return "Some other way"
	}
	return string(c)
}

// PageName is the route name of the payment page for the category.
func (c Category) PageName() string {
	return "payment-" + string(c)
}

const ProgressPath = "/order/payment/progress/"

// PaymentPath is where checkout sends the buyer for the category. Unknown
// categories go to the home page.
func (c Category) PaymentPath() string {
	if !c.Valid() {
		return "/"
	}
	return "/order/payment/" + string(c) + "/"
}

// Item is the single payment attached to an order. Once IsPassed is true it
// never changes again.
type Item struct {
	ID          int64
	OrderID     int64
	Category    Category
	TotalPrice  decimal.Decimal
	FromAccount *string
	IsPassed    bool
}

func (i *Item) HasAccount() bool {
	return i.FromAccount != nil && *i.FromAccount != ""
}

// AttemptResult describes what a payment attempt changed.
type AttemptResult struct {
	PaymentID     int64
	OrderID       int64
	Passed        bool
	AlreadyPassed bool
	// StockShortage is set when the account passed but a line could not be
	// taken from stock, so the attempt was recorded as failed.
	StockShortage bool
}
