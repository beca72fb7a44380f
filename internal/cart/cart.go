package cart

import (
	"errors"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Cart holds at most one entry per product id, in insertion order.
type Cart struct {
	items []models.CartItem
}

func New(items []models.CartItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		if item.Quantity > 0 {
			c.merge(item.Product, item.Quantity)
		}
	}
	return c
}

func (c *Cart) find(productID int64) int {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) merge(product models.Product, quantity int) bool {
	if i := c.find(product.ID); i >= 0 {
		c.items[i].Quantity += quantity
		return true
	}
	c.items = append(c.items, models.CartItem{Product: product, Quantity: quantity})
	return false
}

// Add merges quantity into the product's entry, or appends a new one.
// It reports whether an existing entry was updated.
func (c *Cart) Add(product models.Product, quantity int) (merged bool, err error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	return c.merge(product, quantity), nil
}

// Remove drops the product's entry and returns it, or nil if absent.
func (c *Cart) Remove(productID int64) *models.CartItem {
	i := c.find(productID)
	if i < 0 {
		return nil
	}
	removed := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	return &removed
}

// SetQuantity overwrites the entry's quantity; a non-positive quantity removes it.
// The returned item is the affected entry, or nil if the product is not in the cart.
func (c *Cart) SetQuantity(productID int64, quantity int) *models.CartItem {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	i := c.find(productID)
	if i < 0 {
		return nil
	}
	c.items[i].Quantity = quantity
	updated := c.items[i]
	return &updated
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}
