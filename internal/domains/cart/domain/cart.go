// Package domain models the storefront cart: one line per product, each with
// a snapshot of the product's name and price taken when it was first added.
package domain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrUnknownProduct = errors.New("product is not in the catalog")

// Product is what the cart needs to know about a catalog entry.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Lookup resolves a product id against the current catalog.
type Lookup func(productID string) (Product, bool)

// Line is one aggregated cart entry. Quantity is at least 1 while the line exists.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// RemovalListener is told the name of every line that leaves the cart by decrement or removal.
type RemovalListener func(line Line)

// Cart keeps lines in insertion order.
type Cart struct {
	lookup Lookup

	mu        sync.Mutex
	lines     []Line
	onRemoved RemovalListener
}

func New(lookup Lookup) *Cart {
	return &Cart{lookup: lookup}
}

// OnRemoved registers the listener for removed lines.
func (c *Cart) OnRemoved(listener RemovalListener) {
	c.mu.Lock()
	c.onRemoved = listener
	c.mu.Unlock()
}

// Add puts one unit of a catalog product in the cart.
func (c *Cart) Add(productID string) (Line, error) {
	product, ok := c.lookup(productID)
	if !ok {
		return Line{}, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(productID); i >= 0 {
		c.lines[i].Quantity++
		return c.lines[i], nil
	}
	line := Line{ProductID: product.ID, Name: product.Name, UnitPrice: product.Price, Quantity: 1}
	c.lines = append(c.lines, line)
	return line, nil
}

// Increment adds one unit to an existing line; unknown ids are ignored.
func (c *Cart) Increment(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(productID); i >= 0 {
		c.lines[i].Quantity++
	}
}

// Decrement takes one unit away, removing the line when it would reach zero.
func (c *Cart) Decrement(productID string) {
	c.mu.Lock()
	i := c.find(productID)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		c.mu.Unlock()
		return
	}
	removed, listener := c.drop(i), c.onRemoved
	c.mu.Unlock()
	if listener != nil {
		listener(removed)
	}
}

// Remove drops a line regardless of quantity.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	i := c.find(productID)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	removed, listener := c.drop(i), c.onRemoved
	c.mu.Unlock()
	if listener != nil {
		listener(removed)
	}
}

// Total sums every line's subtotal. An empty cart totals zero.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Len is the number of distinct products in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Clear empties the cart without notifying the removal listener.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func (c *Cart) find(productID string) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) drop(i int) Line {
	removed := c.lines[i]
	c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
	return removed
}

// AddedMessage and RemovedMessage are the cart feedback lines.
func AddedMessage(name string) string { return fmt.Sprintf("Added %s to your cart.", name) }

func RemovedMessage(name string) string { return fmt.Sprintf("%s removed from your cart.", name) }
