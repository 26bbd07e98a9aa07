package cartdto

import "github.com/angelmondragon/tristore-backend/internal/cart"

// UpdateQuantityRequest sets the absolute quantity of a cart line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// MergeRequest carries the guest cart lines collected before sign-in.
type MergeRequest struct {
	Items []cart.AddItemInput `json:"items" validate:"dive"`
}
