package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/types"
)

// LineView is a cart line as the storefront renders it.
type LineView struct {
	ProductID      types.ID        `json:"id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"price"`
	ImageRef       string          `json:"image,omitempty"`
	AvailableStock int             `json:"stock"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	AtStockLimit   bool            `json:"at_stock_limit"`
}

// View is the cart page payload.
type View struct {
	Items         []LineView      `json:"items"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Totals        checkout.Totals `json:"totals"`
}

func newView(c cartsvc.Cart, totals checkout.Totals) View {
	items := c.Items()
	lines := make([]LineView, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineView{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPrice:      item.UnitPrice,
			ImageRef:       item.ImageRef,
			AvailableStock: item.AvailableStock,
			Quantity:       item.Quantity,
			LineTotal:      item.LineTotal(),
			AtStockLimit:   item.Quantity >= item.AvailableStock,
		})
	}
	return View{
		Items:         lines,
		ItemCount:     len(lines),
		TotalQuantity: c.TotalQuantity(),
		TotalPrice:    c.Subtotal(),
		Totals:        totals,
	}
}
