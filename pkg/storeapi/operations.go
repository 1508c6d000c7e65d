package storeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	_, err := c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   c.paths.RegisterPath,
		body:   reg,
	}, nil)
	return err
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	var resp struct {
		Token   string `json:"token"`
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	_, err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   c.paths.LoginPath,
		body:   map[string]string{"username": username, "password": password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	tokens := &Tokens{Access: resp.Token, Refresh: resp.Refresh}
	if tokens.Access == "" {
		tokens.Access = resp.Access
	}
	if tokens.Access == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response carried no token")
	}
	return tokens, nil
}

// Profile returns the user behind token.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	if _, err := c.do(ctx, call{
		op:     "profile",
		method: http.MethodGet,
		path:   c.paths.ProfilePath,
		token:  token,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if _, err := c.do(ctx, call{
		op:     "list_products",
		method: http.MethodGet,
		path:   c.paths.ProductsPath,
	}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts runs a catalog search.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	var products []Product
	if _, err := c.do(ctx, call{
		op:     "search_products",
		method: http.MethodGet,
		path:   c.paths.ProductSearchPath,
		query:  url.Values{"q": []string{strings.TrimSpace(query)}},
	}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product with its current price and stock.
func (c *Client) GetProduct(ctx context.Context, id types.ID) (*Product, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	if _, err := c.do(ctx, call{
		op:     "get_product",
		method: http.MethodGet,
		path:   resource(c.paths.ProductsPath, id.String()),
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateOrder places an order and returns the created record.
func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (*Order, error) {
	var order Order
	if _, err := c.do(ctx, call{
		op:     "create_order",
		method: http.MethodPost,
		path:   c.paths.OrderCreatePath,
		token:  token,
		body:   req,
	}, &order); err != nil {
		return nil, err
	}
	if order.ID.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order response carried no id")
	}
	return &order, nil
}

// InitiatePayment requests the signed gateway payload for an order. The
// gateway URL is read from gateway_url, falling back to esewa_url.
func (c *Client) InitiatePayment(ctx context.Context, token string, req PaymentRequest) (*PaymentInitiation, error) {
	var resp struct {
		GatewayURL string                     `json:"gateway_url"`
		EsewaURL   string                     `json:"esewa_url"`
		Payload    map[string]json.RawMessage `json:"payload"`
	}
	if _, err := c.do(ctx, call{
		op:     "initiate_payment",
		method: http.MethodPost,
		path:   c.paths.PaymentInitPath,
		token:  token,
		body:   req,
	}, &resp); err != nil {
		return nil, err
	}

	initiation := &PaymentInitiation{
		GatewayURL: strings.TrimSpace(resp.GatewayURL),
		Payload:    make(map[string]string, len(resp.Payload)),
	}
	if initiation.GatewayURL == "" {
		initiation.GatewayURL = strings.TrimSpace(resp.EsewaURL)
	}
	for key, raw := range resp.Payload {
		initiation.Payload[key] = scalarString(raw)
	}
	return initiation, nil
}

// ConfirmPayment asks the commerce API to verify a gateway transaction. Any
// status other than 200 is a failed confirmation.
func (c *Client) ConfirmPayment(ctx context.Context, token string, orderID types.ID, transactionUUID string) (*PaymentConfirmation, error) {
	var confirmation PaymentConfirmation
	status, err := c.do(ctx, call{
		op:     "confirm_payment",
		method: http.MethodPost,
		path:   c.paths.PaymentConfirmPath,
		token:  token,
		body: map[string]any{
			"order_id":         orderID,
			"transaction_uuid": transactionUUID,
		},
	}, &confirmation)
	if err != nil {
		return nil, err
	}
	confirmation.Status = status
	if status != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &APIError{Op: "confirm_payment", Status: status}, "Payment confirmation failed.")
	}
	return &confirmation, nil
}

// GetOrder fetches an order of the token's user.
func (c *Client) GetOrder(ctx context.Context, token string, id types.ID) (*Order, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var order Order
	if _, err := c.do(ctx, call{
		op:     "get_order",
		method: http.MethodGet,
		path:   resource(c.paths.OrdersPath, id.String()),
		token:  token,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListUserOrders returns the token user's order history.
func (c *Client) ListUserOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if _, err := c.do(ctx, call{
		op:     "list_user_orders",
		method: http.MethodGet,
		path:   c.paths.UserOrdersPath,
		token:  token,
	}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// TrackOrder looks an order up by tracking code. The token is optional.
func (c *Client) TrackOrder(ctx context.Context, token, trackingCode string) (*Order, error) {
	code := strings.TrimSpace(trackingCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking code is required")
	}
	var order Order
	if _, err := c.do(ctx, call{
		op:     "track_order",
		method: http.MethodGet,
		path:   resource(c.paths.TrackOrderPath, code),
		token:  token,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprintf("%t", b)
	}
	return strings.TrimSpace(string(raw))
}
