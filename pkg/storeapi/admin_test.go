package storeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

func TestAdminDashboardPassesRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/dashboard/", r.URL.Path)
		assert.Equal(t, "30d", r.URL.Query().Get("range"))
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"total_products":    4,
			"total_orders":      2,
			"sales_over_time":   []any{map[string]any{"date": "2026-03-01", "total_sales": 1100}},
			"top_products":      []any{map[string]any{"name": "Dhaka Topi", "sales": "1000.00"}},
			"sales_by_category": []any{map[string]any{"category": "Hats", "sales": 1000}},
		})
	})

	dashboard, err := client.AdminDashboard(context.Background(), "admin", DashboardRangeMonth)
	require.NoError(t, err)
	assert.Equal(t, 4, dashboard.TotalProducts)
	require.Len(t, dashboard.SalesOverTime, 1)
	assert.True(t, decimal.NewFromInt(1100).Equal(dashboard.SalesOverTime[0].TotalSales))
	require.Len(t, dashboard.SalesByCategory, 1)
	assert.Equal(t, "Hats", dashboard.SalesByCategory[0].Category)
}

func TestAdminProductLifecycle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/products/create/":
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "Pashmina", r.PostForm.Get("name"))
			assert.Equal(t, "2500.00", r.PostForm.Get("price"))
			assert.Equal(t, "3", r.PostForm.Get("category"))
			writeJSON(w, http.StatusCreated, map[string]any{"id": 12, "name": "Pashmina", "price": 2500, "stock": 4})
		case r.Method == http.MethodPut && r.URL.Path == "/api/admin/products/12/update/":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(9), body["stock"])
			writeJSON(w, http.StatusOK, map[string]any{"id": 12, "name": "Pashmina", "price": 2500, "stock": 9})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/admin/products/12/delete/":
			writeJSON(w, http.StatusOK, map[string]string{"detail": "Product deleted"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()
	in := ProductInput{Name: "Pashmina", Description: "Wool shawl", Price: decimal.NewFromInt(2500), Stock: 4, Category: "3"}

	created, err := client.AdminCreateProduct(ctx, "admin", in)
	require.NoError(t, err)
	assert.Equal(t, types.ID("12"), created.ID)

	in.Stock = 9
	updated, err := client.AdminUpdateProduct(ctx, "admin", created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)

	require.NoError(t, client.AdminDeleteProduct(ctx, "admin", created.ID))
	assert.True(t, pkgerrors.HasCode(client.AdminDeleteProduct(ctx, "admin", ""), pkgerrors.CodeValidation))
}

func TestAdminCategoriesAndUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/categories/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 3, "name": "Hats", "description": ""}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/categories/create/":
			writeJSON(w, http.StatusCreated, map[string]any{"id": 4, "name": "Shawls"})
		case r.Method == http.MethodPut && r.URL.Path == "/api/admin/categories/4/update/":
			writeJSON(w, http.StatusOK, map[string]any{"id": 4, "name": "Scarves"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/admin/categories/3/delete/":
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Category is in use"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 7, "username": "ram", "is_staff": true}})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	categories, err := client.AdminListCategories(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, categories, 1)

	created, err := client.AdminCreateCategory(ctx, "admin", CategoryInput{Name: "Shawls"})
	require.NoError(t, err)
	renamed, err := client.AdminUpdateCategory(ctx, "admin", created.ID, CategoryInput{Name: "Scarves"})
	require.NoError(t, err)
	assert.Equal(t, "Scarves", renamed.Name)

	err = client.AdminDeleteCategory(ctx, "admin", "3")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	users, err := client.AdminListUsers(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsStaff)
}

func TestAdminOrdersFilterAndStatusUpdate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/orders/":
			assert.Equal(t, "true", r.URL.Query().Get("is_paid"))
			assert.Equal(t, "pending,shipped", r.URL.Query().Get("status"))
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 42, "status": "pending", "is_paid": true}})
		case r.Method == http.MethodPatch && r.URL.Path == "/api/admin/orders/42/status/":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "shipped", body["status"])
			writeJSON(w, http.StatusOK, map[string]any{"id": 42, "status": "shipped"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()
	paid := true

	orders, err := client.AdminListOrders(ctx, "admin", OrderFilter{IsPaid: &paid, Statuses: []string{"pending", "shipped"}})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order, err := client.UpdateOrderStatus(ctx, "admin", "42", "shipped")
	require.NoError(t, err)
	assert.Equal(t, "shipped", order.Status)
}
