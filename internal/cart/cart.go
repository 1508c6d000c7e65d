package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/types"
)

// LineItem is one product in the cart. The JSON shape matches the slot format
// written by the browser storefront: the product fields plus the chosen quantity.
type LineItem struct {
	ProductID      types.ID        `json:"id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"price"`
	ImageRef       string          `json:"image,omitempty"`
	AvailableStock int             `json:"stock"`
	Quantity       int             `json:"quantity"`
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Product is the catalog snapshot handed to AddItem.
type Product struct {
	ID    types.ID        `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
	Stock int             `json:"stock"`
}

// Cart is an insertion-ordered collection of line items keyed by product id.
// Transitions return a new Cart and never modify the receiver.
type Cart struct {
	items []LineItem
}

// New builds a cart from line items, keeping the first occurrence of each product.
func New(items ...LineItem) Cart {
	out := make([]LineItem, 0, len(items))
	seen := make(map[types.ID]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ProductID]; dup {
			continue
		}
		seen[item.ProductID] = struct{}{}
		out = append(out, item)
	}
	return Cart{items: out}
}

// Items returns a copy of the line items in insertion order.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int {
	return len(c.items)
}

func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Item looks up a line item by product id.
func (c Cart) Item(id types.ID) (LineItem, bool) {
	if idx := c.indexOf(id); idx >= 0 {
		return c.items[idx], true
	}
	return LineItem{}, false
}

// Add inserts product with qty, or raises the quantity of an existing line.
// The result must stay within the product's stock; otherwise the cart is
// returned unchanged with false. An accepted add refreshes the stored stock
// and price snapshot from product.
func (c Cart) Add(product Product, qty int) (Cart, bool) {
	if product.ID.IsZero() || qty < 1 {
		return c, false
	}
	idx := c.indexOf(product.ID)
	if idx < 0 {
		if qty > product.Stock {
			return c, false
		}
		next := c.Items()
		next = append(next, LineItem{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPrice:      product.Price,
			ImageRef:       product.Image,
			AvailableStock: product.Stock,
			Quantity:       qty,
		})
		return Cart{items: next}, true
	}

	newQty := c.items[idx].Quantity + qty
	if newQty > product.Stock {
		return c, false
	}
	next := c.Items()
	next[idx].Name = product.Name
	next[idx].UnitPrice = product.Price
	next[idx].ImageRef = product.Image
	next[idx].AvailableStock = product.Stock
	next[idx].Quantity = newQty
	return Cart{items: next}, true
}

// UpdateQuantity replaces the quantity of an existing line. It rejects
// quantities below one, above the recorded stock, and unknown products.
func (c Cart) UpdateQuantity(id types.ID, qty int) (Cart, bool) {
	idx := c.indexOf(id)
	if idx < 0 || qty < 1 || qty > c.items[idx].AvailableStock {
		return c, false
	}
	next := c.Items()
	next[idx].Quantity = qty
	return Cart{items: next}, true
}

// Remove drops the line for id if present.
func (c Cart) Remove(id types.ID) Cart {
	idx := c.indexOf(id)
	if idx < 0 {
		return c
	}
	next := make([]LineItem, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	return Cart{items: next}
}

// Subtotal sums UnitPrice * Quantity in insertion order.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// TotalQuantity returns the number of units across all lines.
func (c Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c Cart) indexOf(id types.ID) int {
	for i, item := range c.items {
		if item.ProductID == id {
			return i
		}
	}
	return -1
}
