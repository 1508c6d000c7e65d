package storeapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Dashboard ranges the commerce API understands. Anything else is all time.
const (
	DashboardRangeWeek  = "7d"
	DashboardRangeMonth = "30d"
	DashboardRangeAll   = "all"
)

// AdminDashboard returns the back-office summary for a range.
func (c *Client) AdminDashboard(ctx context.Context, token, dateRange string) (*Dashboard, error) {
	var query url.Values
	if dateRange = strings.TrimSpace(dateRange); dateRange != "" {
		query = url.Values{"range": []string{dateRange}}
	}
	var dashboard Dashboard
	if _, err := c.do(ctx, call{
		op:     "admin_dashboard",
		method: http.MethodGet,
		path:   c.paths.AdminDashboardPath,
		query:  query,
		token:  token,
	}, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// AdminListProducts returns every product, including out of stock ones.
func (c *Client) AdminListProducts(ctx context.Context, token string) ([]Product, error) {
	var products []Product
	if _, err := c.do(ctx, call{
		op:     "admin_list_products",
		method: http.MethodGet,
		path:   c.paths.AdminProductsPath,
		token:  token,
	}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AdminCreateProduct adds a product. The create endpoint only parses form
// bodies, so the input is sent form encoded.
func (c *Client) AdminCreateProduct(ctx context.Context, token string, in ProductInput) (*Product, error) {
	form := url.Values{
		"name":        []string{in.Name},
		"description": []string{in.Description},
		"price":       []string{in.Price.StringFixed(2)},
		"stock":       []string{strconv.Itoa(in.Stock)},
		"category":    []string{in.Category.String()},
	}
	var product Product
	if _, err := c.do(ctx, call{
		op:     "admin_create_product",
		method: http.MethodPost,
		path:   adminAction(c.paths.AdminProductsPath, "", "create"),
		token:  token,
		form:   form,
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AdminUpdateProduct replaces a product's fields.
func (c *Client) AdminUpdateProduct(ctx context.Context, token string, id types.ID, in ProductInput) (*Product, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	if _, err := c.do(ctx, call{
		op:     "admin_update_product",
		method: http.MethodPut,
		path:   adminAction(c.paths.AdminProductsPath, id.String(), "update"),
		token:  token,
		body:   in,
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AdminDeleteProduct removes a product.
func (c *Client) AdminDeleteProduct(ctx context.Context, token string, id types.ID) error {
	if id.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	_, err := c.do(ctx, call{
		op:     "admin_delete_product",
		method: http.MethodDelete,
		path:   adminAction(c.paths.AdminProductsPath, id.String(), "delete"),
		token:  token,
	}, nil)
	return err
}

// AdminListCategories returns the product categories.
func (c *Client) AdminListCategories(ctx context.Context, token string) ([]Category, error) {
	var categories []Category
	if _, err := c.do(ctx, call{
		op:     "admin_list_categories",
		method: http.MethodGet,
		path:   c.paths.AdminCategoriesPath,
		token:  token,
	}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// AdminCreateCategory adds a category.
func (c *Client) AdminCreateCategory(ctx context.Context, token string, in CategoryInput) (*Category, error) {
	var category Category
	if _, err := c.do(ctx, call{
		op:     "admin_create_category",
		method: http.MethodPost,
		path:   adminAction(c.paths.AdminCategoriesPath, "", "create"),
		token:  token,
		body:   in,
	}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// AdminUpdateCategory replaces a category's fields.
func (c *Client) AdminUpdateCategory(ctx context.Context, token string, id types.ID, in CategoryInput) (*Category, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	var category Category
	if _, err := c.do(ctx, call{
		op:     "admin_update_category",
		method: http.MethodPut,
		path:   adminAction(c.paths.AdminCategoriesPath, id.String(), "update"),
		token:  token,
		body:   in,
	}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// AdminDeleteCategory removes a category. The commerce API refuses while
// products still reference it.
func (c *Client) AdminDeleteCategory(ctx context.Context, token string, id types.ID) error {
	if id.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	_, err := c.do(ctx, call{
		op:     "admin_delete_category",
		method: http.MethodDelete,
		path:   adminAction(c.paths.AdminCategoriesPath, id.String(), "delete"),
		token:  token,
	}, nil)
	return err
}

// AdminListUsers returns every account, newest first.
func (c *Client) AdminListUsers(ctx context.Context, token string) ([]AdminUser, error) {
	var users []AdminUser
	if _, err := c.do(ctx, call{
		op:     "admin_list_users",
		method: http.MethodGet,
		path:   c.paths.AdminUsersPath,
		token:  token,
	}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminListOrders returns all orders, newest first, narrowed by filter.
func (c *Client) AdminListOrders(ctx context.Context, token string, filter OrderFilter) ([]Order, error) {
	query := url.Values{}
	if filter.IsPaid != nil {
		query.Set("is_paid", strconv.FormatBool(*filter.IsPaid))
	}
	if len(filter.Statuses) > 0 {
		query.Set("status", strings.Join(filter.Statuses, ","))
	}
	var orders []Order
	if _, err := c.do(ctx, call{
		op:     "admin_list_orders",
		method: http.MethodGet,
		path:   c.paths.AdminOrdersPath,
		query:  query,
		token:  token,
	}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to a delivery status.
func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id types.ID, status string) (*Order, error) {
	if id.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var order Order
	if _, err := c.do(ctx, call{
		op:     "update_order_status",
		method: http.MethodPatch,
		path:   adminAction(c.paths.AdminOrdersPath, id.String(), "status"),
		token:  token,
		body:   map[string]string{"status": status},
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// adminAction builds the back-office action routes, e.g.
// /api/admin/products/create/ or /api/admin/products/5/update/.
func adminAction(collection, id, action string) string {
	base := strings.TrimRight(collection, "/")
	if id != "" {
		base += "/" + url.PathEscape(strings.TrimSpace(id))
	}
	return base + "/" + action + "/"
}
