package admin

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Order delivery statuses staff may set.
var orderStatuses = []string{"pending", "shipped", "out_for_delivery", "delivered"}

// Backend is the back-office surface of the commerce API.
type Backend interface {
	AdminDashboard(ctx context.Context, token, dateRange string) (*storeapi.Dashboard, error)
	AdminListProducts(ctx context.Context, token string) ([]storeapi.Product, error)
	AdminCreateProduct(ctx context.Context, token string, in storeapi.ProductInput) (*storeapi.Product, error)
	AdminUpdateProduct(ctx context.Context, token string, id types.ID, in storeapi.ProductInput) (*storeapi.Product, error)
	AdminDeleteProduct(ctx context.Context, token string, id types.ID) error
	AdminListCategories(ctx context.Context, token string) ([]storeapi.Category, error)
	AdminCreateCategory(ctx context.Context, token string, in storeapi.CategoryInput) (*storeapi.Category, error)
	AdminUpdateCategory(ctx context.Context, token string, id types.ID, in storeapi.CategoryInput) (*storeapi.Category, error)
	AdminDeleteCategory(ctx context.Context, token string, id types.ID) error
	AdminListUsers(ctx context.Context, token string) ([]storeapi.AdminUser, error)
	AdminListOrders(ctx context.Context, token string, filter storeapi.OrderFilter) ([]storeapi.Order, error)
	UpdateOrderStatus(ctx context.Context, token string, id types.ID, status string) (*storeapi.Order, error)
}

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock" validate:"required,gte=0"`
	Category    types.ID        `json:"category" validate:"required"`
}

func (p productRequest) input() (storeapi.ProductInput, error) {
	if !p.Price.IsPositive() {
		return storeapi.ProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"price": "must be greater than 0"})
	}
	return storeapi.ProductInput{
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Price:       p.Price.Round(2),
		Stock:       *p.Stock,
		Category:    p.Category,
	}, nil
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

func (c categoryRequest) input() storeapi.CategoryInput {
	return storeapi.CategoryInput{Name: strings.TrimSpace(c.Name), Description: strings.TrimSpace(c.Description)}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shipped out_for_delivery delivered"`
}

// Dashboard returns the sales summary. range is 7d (default), 30d or all.
func Dashboard(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateRange := strings.TrimSpace(r.URL.Query().Get("range"))
		switch dateRange {
		case "":
			dateRange = storeapi.DashboardRangeWeek
		case storeapi.DashboardRangeWeek, storeapi.DashboardRangeMonth, storeapi.DashboardRangeAll:
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "range must be one of: 7d, 30d, all").
				WithDetails(map[string]any{"field": "range"}))
			return
		}
		dashboard, err := backend.AdminDashboard(r.Context(), staffToken(r), dateRange)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

func ListProducts(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := backend.AdminListProducts(r.Context(), staffToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if products == nil {
			products = []storeapi.Product{}
		}
		responses.WriteSuccess(w, products)
	}
}

func CreateProduct(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeProduct(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := backend.AdminCreateProduct(r.Context(), staffToken(r), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		audit(r.Context(), logg, map[string]any{"product_id": product.ID.String()}, "product created")
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		in, err := decodeProduct(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := backend.AdminUpdateProduct(r.Context(), staffToken(r), id, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := backend.AdminDeleteProduct(r.Context(), staffToken(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		audit(r.Context(), logg, map[string]any{"product_id": id.String()}, "product deleted")
		responses.WriteSuccess(w, map[string]string{"id": id.String()})
	}
}

func ListCategories(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := backend.AdminListCategories(r.Context(), staffToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if categories == nil {
			categories = []storeapi.Category{}
		}
		responses.WriteSuccess(w, categories)
	}
}

func CreateCategory(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := backend.AdminCreateCategory(r.Context(), staffToken(r), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func UpdateCategory(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := backend.AdminUpdateCategory(r.Context(), staffToken(r), id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// DeleteCategory removes a category. The commerce API answers 400 while
// products still use it and that is passed through.
func DeleteCategory(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := backend.AdminDeleteCategory(r.Context(), staffToken(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": id.String()})
	}
}

func ListUsers(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := backend.AdminListUsers(r.Context(), staffToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if users == nil {
			users = []storeapi.AdminUser{}
		}
		responses.WriteSuccess(w, users)
	}
}

// ListOrders returns every order. is_paid=true|false and a comma separated
// status list narrow the result.
func ListOrders(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := orderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := backend.AdminListOrders(r.Context(), staffToken(r), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if orders == nil {
			orders = []storeapi.Order{}
		}
		responses.WriteSuccess(w, orders)
	}
}

func UpdateOrderStatus(backend Backend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := backend.UpdateOrderStatus(r.Context(), staffToken(r), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		audit(r.Context(), logg, map[string]any{"order_id": id.String(), "status": body.Status}, "order status updated")
		responses.WriteSuccess(w, order)
	}
}

func decodeProduct(r *http.Request) (storeapi.ProductInput, error) {
	var body productRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return storeapi.ProductInput{}, err
	}
	return body.input()
}

func orderFilter(r *http.Request) (storeapi.OrderFilter, error) {
	var filter storeapi.OrderFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("is_paid")); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "is_paid must be true or false").
				WithDetails(map[string]any{"field": "is_paid"})
		}
		filter.IsPaid = &paid
	}
	for _, status := range strings.Split(r.URL.Query().Get("status"), ",") {
		status = strings.TrimSpace(status)
		if status == "" {
			continue
		}
		if !knownStatus(status) {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
				WithDetails(map[string]any{"field": "status", "value": status})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return filter, nil
}

func knownStatus(status string) bool {
	for _, s := range orderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// audit records a back-office change.
func audit(ctx context.Context, logg *logger.Logger, fields map[string]any, msg string) {
	if logg == nil {
		return
	}
	logg.Info(logg.WithFields(ctx, fields), msg)
}

// staffToken reads the access token of the session RequireAdmin resolved.
func staffToken(r *http.Request) string {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return sess.Token
}
