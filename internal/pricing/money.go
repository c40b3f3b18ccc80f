package pricing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == RUB || c == USD
}

// Money is an amount in a currency. Amounts keep full precision; rounding to
// two places happens only in Rounded, String and JSON output.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

func Rub(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: RUB}
}

// Add sums two amounts of the same currency.
func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}
}

func (m Money) Mul(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

// Rounded rounds half away from zero to two places, which is half-up for the
// non-negative amounts the marketplace deals in.
func (m Money) Rounded() Money {
	return Money{Amount: m.Amount.Round(2), Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String formats as "1000.00 RUB".
func (m Money) String() string {
	var b strings.Builder
	b.WriteString(m.Amount.StringFixed(2))
	b.WriteByte(' ')
	b.WriteString(string(m.Currency))
	return b.String()
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
	Display  string   `json:"display"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency,
		Display:  m.String(),
	})
}
