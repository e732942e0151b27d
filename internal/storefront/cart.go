package storefront

import (
	"sync"

	"storefront-service/internal/domain"
)

// Cart holds a client's line items in insertion order. It never touches the database.
type Cart struct {
	mu    sync.Mutex
	items []domain.CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Add inserts product or, if already present, adds qty to its quantity.
// A quantity below 1 is treated as 1.
func (c *Cart) Add(product domain.Product, qty int32) {
	if qty < 1 {
		qty = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == product.ID {
			c.items[i].Quantity += qty
			return
		}
	}
	c.items = append(c.items, domain.CartItem{Product: product, Quantity: qty})
}

// UpdateQuantity changes the quantity of productID by delta, never going below 1.
// It reports whether the product was in the cart.
func (c *Cart) UpdateQuantity(productID int64, delta int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == productID {
			c.items[i].Quantity = max(1, c.items[i].Quantity+delta)
			return true
		}
	}
	return false
}

func (c *Cart) Remove(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the line items.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Count is the sum of quantities.
func (c *Cart) Count() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int32
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}
