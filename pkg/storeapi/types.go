package storeapi

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Tokens are the credentials issued at login.
type Tokens struct {
	Access  string `json:"token"`
	Refresh string `json:"refresh"`
}

// Profile is the authenticated user as the commerce API reports it.
type Profile struct {
	ID       types.ID `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	IsAdmin  bool     `json:"is_admin"`
}

// Product is a catalog entry.
type Product struct {
	ID          types.ID        `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Category    types.ID        `json:"category,omitempty"`
}

// DisplayImage prefers the absolute image url over the stored path.
func (p Product) DisplayImage() string {
	if strings.TrimSpace(p.ImageURL) != "" {
		return p.ImageURL
	}
	return p.Image
}

// OrderLine is one {product_id, quantity} entry of an order request.
type OrderLine struct {
	ProductID types.ID `json:"product_id"`
	Quantity  int      `json:"quantity"`
}

// CreateOrderRequest is the order-creation body.
type CreateOrderRequest struct {
	ShippingAddress string      `json:"shipping_address"`
	City            string      `json:"city"`
	Items           []OrderLine `json:"items"`
}

// OrderItem is a purchased line of an order.
type OrderItem struct {
	ID          types.ID        `json:"id"`
	ProductName string          `json:"product_name"`
	Product     *Product        `json:"product,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order is the commerce API's order record.
type Order struct {
	ID           types.ID        `json:"id"`
	User         string          `json:"user,omitempty"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Status       string          `json:"status"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
	TrackingCode string          `json:"tracking_code,omitempty"`
	Items        []OrderItem     `json:"items"`
	IsPaid       bool            `json:"is_paid"`
}

// PaymentRequest asks the commerce API to sign a gateway payload.
type PaymentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID types.ID        `json:"order_id"`
}

// PaymentInitiation is the gateway URL and the signed form fields.
type PaymentInitiation struct {
	GatewayURL string
	Payload    map[string]string
}

// TransactionUUID returns the payload's transaction id, if any.
func (p *PaymentInitiation) TransactionUUID() string {
	if p == nil {
		return ""
	}
	return p.Payload["transaction_uuid"]
}

// PaymentConfirmation is the answer to a payment confirmation.
type PaymentConfirmation struct {
	Status  int    `json:"-"`
	Message string `json:"message,omitempty"`
}

// Registration is the account-creation body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProductInput is the admin form for creating or replacing a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    types.ID        `json:"category"`
}

// Category groups products in the catalog.
type Category struct {
	ID          types.ID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// CategoryInput is the admin form for a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AdminUser is an account as listed in the back-office.
type AdminUser struct {
	ID          types.ID   `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	DateJoined  *time.Time `json:"date_joined,omitempty"`
}

// SalesPoint is one day of paid sales.
type SalesPoint struct {
	Date       string          `json:"date"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// NamedSales is a sales total under a product or category name.
type NamedSales struct {
	Name     string          `json:"name,omitempty"`
	Category string          `json:"category,omitempty"`
	Sales    decimal.Decimal `json:"sales"`
}

// Dashboard is the back-office summary for a date range.
type Dashboard struct {
	TotalProducts   int          `json:"total_products"`
	TotalOrders     int          `json:"total_orders"`
	TotalCategories int          `json:"total_categories"`
	TotalUsers      int          `json:"total_users"`
	SalesOverTime   []SalesPoint `json:"sales_over_time"`
	TopProducts     []NamedSales `json:"top_products"`
	SalesByCategory []NamedSales `json:"sales_by_category"`
}

// OrderFilter narrows the back-office order list. Nil IsPaid means any.
type OrderFilter struct {
	IsPaid   *bool
	Statuses []string
}
