package cart

import "github.com/angelmondragon/storefront/pkg/types"

type addItemRequest struct {
	ProductID types.ID `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,min=1,max=1000"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}
