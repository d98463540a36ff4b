package order

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
)

var ErrLineNotFound = errors.New("item not in cart")

// Cart is the till's single in-progress order.
type Cart struct {
	mu         sync.Mutex
	lines      []ledger.CartLine
	discount   string
	vatEnabled bool
	vatDefault bool
}

type CartView struct {
	Lines      []ledger.CartLine `json:"lines"`
	Discount   string            `json:"discount"`
	VatEnabled bool              `json:"vatEnabled"`
	Totals     Totals            `json:"totals"`
}

func NewCart(vatDefault bool) *Cart {
	return &Cart{vatEnabled: vatDefault, vatDefault: vatDefault}
}

// Add puts qty of item in the cart, merging with an existing line.
func (c *Cart) Add(item ledger.MenuItem, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if item.Price.IsNegative() {
		return ErrInvalidPrice
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID == item.ID {
			c.lines[i].Quantity += qty
			return nil
		}
	}
	c.lines = append(c.lines, ledger.CartLine{MenuItem: item, Quantity: qty})
	return nil
}

// SetQuantity changes a line's quantity; zero removes it.
func (c *Cart) SetQuantity(itemID, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID != itemID {
			continue
		}
		if qty == 0 {
			c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = qty
		}
		return nil
	}
	return ErrLineNotFound
}

func (c *Cart) Remove(itemID int) error {
	return c.SetQuantity(itemID, 0)
}

// Clear empties the cart and restores the default VAT setting.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.discount = ""
	c.vatEnabled = c.vatDefault
}

func (c *Cart) SetDiscount(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discount = raw
}

func (c *Cart) SetVat(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vatEnabled = enabled
}

// SetVatDefault changes the setting Clear restores, following shop settings.
func (c *Cart) SetVatDefault(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vatDefault = enabled
}

func (c *Cart) View(vatRate decimal.Decimal) CartView {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]ledger.CartLine, len(c.lines))
	copy(lines, c.lines)
	return CartView{
		Lines:      lines,
		Discount:   c.discount,
		VatEnabled: c.vatEnabled,
		Totals:     ComputeTotals(lines, c.discount, c.vatEnabled, vatRate),
	}
}

// Lines returns a copy of the cart's lines.
func (c *Cart) Lines() []ledger.CartLine {
	return c.View(decimal.Zero).Lines
}

func (c *Cart) Totals(vatRate decimal.Decimal) Totals {
	return c.View(vatRate).Totals
}
