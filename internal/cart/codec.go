package cart

import (
	"encoding/json"
)

// Encode serializes the cart as a JSON array of line items. An empty cart
// encodes as [] rather than null.
func Encode(c Cart) ([]byte, error) {
	items := c.items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// Decode restores a cart from its slot payload. Corrupt payloads decode to an
// empty cart. Lines without an id, with a non-positive quantity or with more
// units than the recorded stock are skipped.
func Decode(payload []byte) Cart {
	if len(payload) == 0 {
		return Cart{}
	}
	var items []LineItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return Cart{}
	}
	valid := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID.IsZero() || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			continue
		}
		if item.Quantity > item.AvailableStock {
			continue
		}
		valid = append(valid, item)
	}
	return New(valid...)
}
