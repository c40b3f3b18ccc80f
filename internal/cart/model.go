package cart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"marketplace-be/internal/pricing"
	"marketplace-be/internal/product"
	"marketplace-be/internal/session"

	"github.com/shopspring/decimal"
)

const MaxQuantity = 10000

// Item is one cart entry. Price is the RUB unit price captured when the
// listing was first added and is not refreshed afterwards.
type Item struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Cart maps listing ids, as strings, to items.
type Cart struct {
	items map[string]*Item
}

func New() *Cart {
	return &Cart{items: make(map[string]*Item)}
}

func key(listingID int64) string {
	return strconv.FormatInt(listingID, 10)
}

// FromSession reads the cart from the session. A missing cart is empty.
func FromSession(s *session.Session) (*Cart, error) {
	c := New()
	if _, err := s.Get(session.KeyCart, &c.items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedLoadCart, err)
	}
	if c.items == nil {
		c.items = make(map[string]*Item)
	}
	return c, nil
}

func (c *Cart) Save(s *session.Session) error {
	if err := s.Set(session.KeyCart, c.items); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
	}
	return nil
}

// Clear drops the cart key from the session entirely.
func Clear(s *session.Session) {
	s.Delete(session.KeyCart)
}

// Add puts a listing in the cart. A new entry captures the listing's current
// effective price; replace sets the quantity, otherwise it is incremented.
func (c *Cart) Add(l *product.Listing, quantity int, replace bool) {
	k := key(l.ID)
	item, ok := c.items[k]
	if !ok {
		item = &Item{Price: l.EffectivePrice().Rounded().Amount}
		c.items[k] = item
	}
	if replace {
		item.Quantity = quantity
	} else {
		item.Quantity += quantity
	}
}

// Decrement lowers the quantity by one and drops the entry below 1.
func (c *Cart) Decrement(listingID int64) {
	k := key(listingID)
	item, ok := c.items[k]
	if !ok {
		return
	}
	item.Quantity--
	if item.Quantity < 1 {
		delete(c.items, k)
	}
}

func (c *Cart) Remove(listingID int64) {
	delete(c.items, key(listingID))
}

func (c *Cart) Item(listingID int64) (Item, bool) {
	item, ok := c.items[key(listingID)]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPriceRUB() pricing.Money {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return pricing.Rub(total)
}

func (c *Cart) TotalPrice(conv *pricing.Converter, currency pricing.Currency) pricing.Money {
	return conv.Convert(c.TotalPriceRUB(), currency)
}

// IDs returns the listing ids in ascending order. Keys that are not ids are
// skipped.
func (c *Cart) IDs() []int64 {
	ids := make([]int64, 0, len(c.items))
	for k := range c.items {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseQuantity reads the add-to-cart quantity field: digits only, capped at
// MaxQuantity. Anything else, including zero, counts as 1.
func ParseQuantity(raw string) int {
	if raw == "" {
		return 1
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 1
		}
	}
	raw = strings.TrimLeft(raw, "0")
	if raw == "" {
		return 1
	}
	if len(raw) > len(strconv.Itoa(MaxQuantity)) {
		return MaxQuantity
	}
	n, _ := strconv.Atoi(raw)
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

// Line is a cart entry joined with its live listing.
type Line struct {
	Listing  *product.Listing
	Quantity int
	Price    pricing.Money
}

func (l Line) Subtotal() pricing.Money {
	return l.Price.Mul(int64(l.Quantity))
}
