package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

const maxSearchLength = 100

// Catalog is the product surface of the commerce API.
type Catalog interface {
	ListProducts(ctx context.Context) ([]storeapi.Product, error)
	SearchProducts(ctx context.Context, query string) ([]storeapi.Product, error)
	GetProduct(ctx context.Context, id types.ID) (*storeapi.Product, error)
}

func ProductList(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := catalog.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(products))
	}
}

func ProductSearch(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := validators.RequiredQuery(r, "q", maxSearchLength)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := catalog.SearchProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(products))
	}
}

func ProductDetail(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := catalog.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
