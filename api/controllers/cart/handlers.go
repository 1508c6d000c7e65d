package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/workspace"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

// ProductSource looks up the current catalog entry of a product.
type ProductSource interface {
	GetProduct(ctx context.Context, id types.ID) (*storeapi.Product, error)
}

// CartFetch returns the browser's cart.
func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot(ws))
	}
}

// CartTotals returns the subtotal, shipping charge and grand total.
func CartTotals(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ws.Checkout.Totals())
	}
}

// CartClear empties the cart.
func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ws.Cart.Clear(r.Context())
		responses.WriteSuccess(w, snapshot(ws))
	}
}

// CartAddItem adds a product using a fresh catalog snapshot, so price and
// stock come from the commerce API rather than the caller.
func CartAddItem(products ProductSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := cartsvc.Product{
			ID:    product.ID,
			Name:  product.Name,
			Price: product.Price,
			Image: product.DisplayImage(),
			Stock: product.Stock,
		}
		if !ws.Cart.AddItem(r.Context(), snap, body.Quantity) {
			msg := fmt.Sprintf("Cannot add more than %s of %q", itemCount(product.Stock), product.Name)
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, msg).
				WithDetails(map[string]any{"product_id": product.ID.String(), "stock": product.Stock}))
			return
		}
		responses.WriteSuccess(w, snapshot(ws))
	}
}

// CartUpdateQuantity sets a line's quantity within its known stock.
func CartUpdateQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, ok := ws.Cart.Snapshot().Item(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart"))
			return
		}
		if !ws.Cart.UpdateQuantity(r.Context(), id, body.Quantity) {
			msg := fmt.Sprintf("Only %s in stock", itemCount(item.AvailableStock))
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, msg).
				WithDetails(map[string]any{"product_id": id.String(), "stock": item.AvailableStock}))
			return
		}
		responses.WriteSuccess(w, snapshot(ws))
	}
}

// CartRemoveItem drops a line; unknown ids are a no-op.
func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ws.Cart.RemoveItem(r.Context(), id)
		responses.WriteSuccess(w, snapshot(ws))
	}
}

func snapshot(ws *workspace.Workspace) View {
	c := ws.Cart.Snapshot()
	return newView(c, ws.Checkout.Policy().Compute(c))
}

func workspaceFrom(r *http.Request) (*workspace.Workspace, error) {
	ws := middleware.WorkspaceFromContext(r.Context())
	if ws == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart workspace missing")
	}
	return ws, nil
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
