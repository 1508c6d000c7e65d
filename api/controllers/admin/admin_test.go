package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

type staffSessions struct{}

func (staffSessions) Resolve(_ context.Context, id string) (*session.Session, error) {
	return &session.Session{ID: id, Token: "stafftok", UserID: "1", IsAdmin: true}, nil
}

// stubBackend records what the handlers forwarded.
type stubBackend struct {
	Backend
	token     string
	dateRange string
	created   *storeapi.ProductInput
	updatedID types.ID
	filter    storeapi.OrderFilter
	status    string
}

func (s *stubBackend) AdminDashboard(_ context.Context, token, dateRange string) (*storeapi.Dashboard, error) {
	s.token, s.dateRange = token, dateRange
	return &storeapi.Dashboard{TotalOrders: 3}, nil
}

func (s *stubBackend) AdminCreateProduct(_ context.Context, token string, in storeapi.ProductInput) (*storeapi.Product, error) {
	s.token, s.created = token, &in
	return &storeapi.Product{ID: "12", Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (s *stubBackend) AdminUpdateProduct(_ context.Context, _ string, id types.ID, in storeapi.ProductInput) (*storeapi.Product, error) {
	s.updatedID = id
	return &storeapi.Product{ID: id, Name: in.Name}, nil
}

func (s *stubBackend) AdminListOrders(_ context.Context, _ string, filter storeapi.OrderFilter) ([]storeapi.Order, error) {
	s.filter = filter
	return nil, nil
}

func (s *stubBackend) UpdateOrderStatus(_ context.Context, _ string, id types.ID, status string) (*storeapi.Order, error) {
	s.status = status
	return &storeapi.Order{ID: id, Status: status}, nil
}

func newAdminRouter(backend Backend) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSessionID(r.Context(), "staff-session")))
		})
	})
	r.Use(middleware.RequireAdmin(staffSessions{}, logg))
	r.Get("/dashboard", Dashboard(backend, logg))
	r.Get("/orders", ListOrders(backend, logg))
	r.Post("/products", CreateProduct(backend, logg))
	r.Put("/products/{productId}", UpdateProduct(backend, logg))
	r.Patch("/orders/{orderId}/status", UpdateOrderStatus(backend, logg))
	return r
}

func serve(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	return rec, payload
}

func TestDashboardRange(t *testing.T) {
	backend := &stubBackend{}
	h := newAdminRouter(backend)

	rec, _ := serve(t, h, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7d", backend.dateRange)
	assert.Equal(t, "stafftok", backend.token)

	rec, _ = serve(t, h, http.MethodGet, "/dashboard?range=30d", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "30d", backend.dateRange)

	rec, _ = serve(t, h, http.MethodGet, "/dashboard?range=90d", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProductValidates(t *testing.T) {
	backend := &stubBackend{}
	h := newAdminRouter(backend)

	cases := []struct {
		name string
		body string
	}{
		{"missing stock", `{"name":"Pashmina","price":"2500","category":3}`},
		{"negative stock", `{"name":"Pashmina","price":"2500","stock":-1,"category":3}`},
		{"zero price", `{"name":"Pashmina","price":"0","stock":4,"category":3}`},
		{"missing name", `{"price":"2500","stock":4,"category":3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := serve(t, h, http.MethodPost, "/products", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Nil(t, backend.created)

	rec, payload := serve(t, h, http.MethodPost, "/products", `{"name":" Pashmina ","price":2500.456,"stock":0,"category":"3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, backend.created)
	assert.Equal(t, "Pashmina", backend.created.Name)
	assert.Equal(t, "2500.46", backend.created.Price.StringFixed(2))
	assert.Equal(t, 0, backend.created.Stock)
	assert.Equal(t, types.ID("3"), backend.created.Category)
	assert.Equal(t, float64(12), payload["data"].(map[string]any)["id"])
}

func TestUpdateProductUsesPathID(t *testing.T) {
	backend := &stubBackend{}
	rec, _ := serve(t, newAdminRouter(backend), http.MethodPut, "/products/12", `{"name":"Pashmina","price":"2600","stock":2,"category":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.ID("12"), backend.updatedID)
}

func TestListOrdersFilters(t *testing.T) {
	backend := &stubBackend{}
	h := newAdminRouter(backend)

	rec, payload := serve(t, h, http.MethodGet, "/orders?is_paid=false&status=pending,%20delivered", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, backend.filter.IsPaid)
	assert.False(t, *backend.filter.IsPaid)
	assert.Equal(t, []string{"pending", "delivered"}, backend.filter.Statuses)
	assert.Equal(t, []any{}, payload["data"])

	rec, _ = serve(t, h, http.MethodGet, "/orders?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = serve(t, h, http.MethodGet, "/orders?is_paid=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	backend := &stubBackend{}
	h := newAdminRouter(backend)

	rec, payload := serve(t, h, http.MethodPatch, "/orders/42/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := payload["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "must be one of: pending, shipped, out_for_delivery, delivered", details["status"])
	assert.Empty(t, backend.status)

	rec, _ = serve(t, h, http.MethodPatch, "/orders/42/status", `{"status":"out_for_delivery"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "out_for_delivery", backend.status)
}
