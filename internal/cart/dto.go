package cart

import (
	"time"

	"github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/google/uuid"
)

// AddItemInput references a catalog entity and the quantity to add.
type AddItemInput struct {
	EntityType enums.EntityType `json:"entity_type" validate:"required,enum"`
	EntityID   uuid.UUID        `json:"entity_id" validate:"required"`
	Quantity   int              `json:"quantity" validate:"required,min=1"`
	Size       string           `json:"size,omitempty"`
	Color      string           `json:"color,omitempty"`
}

// Ref returns the catalog reference of the input.
func (in AddItemInput) Ref() catalog.ItemRef {
	return catalog.ItemRef{
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Size:       in.Size,
		Color:      in.Color,
	}
}

// LineView is the client representation of a cart line.
type LineView struct {
	ID             uuid.UUID        `json:"id"`
	EntityType     enums.EntityType `json:"entity_type"`
	EntityID       uuid.UUID        `json:"entity_id"`
	VendorID       uuid.UUID        `json:"vendor_id"`
	RestaurantID   *uuid.UUID       `json:"restaurant_id,omitempty"`
	Name           string           `json:"name"`
	PriceCents     int              `json:"price_cents"`
	ImageURL       *string          `json:"image_url,omitempty"`
	Quantity       int              `json:"quantity"`
	Size           string           `json:"size,omitempty"`
	Color          string           `json:"color,omitempty"`
	LineTotalCents int              `json:"line_total_cents"`
}

// CartView is the client representation of a cart with totals derived from its lines.
type CartView struct {
	ID            *uuid.UUID `json:"id,omitempty"`
	UserID        uuid.UUID  `json:"user_id"`
	Items         []LineView `json:"items"`
	ItemCount     int        `json:"item_count"`
	SubtotalCents int        `json:"subtotal_cents"`
	TotalCents    int        `json:"total_cents"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// InvalidItem describes a line that would fail checkout.
type InvalidItem struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	ItemName   string    `json:"item_name"`
	Reason     string    `json:"reason"`
}

// ValidationResult is the dry-run outcome of checkout validation.
type ValidationResult struct {
	Valid        bool          `json:"valid"`
	InvalidItems []InvalidItem `json:"invalid_items"`
}

// RejectedItem is a guest line the server refused to merge.
type RejectedItem struct {
	AddItemInput
	Reason string `json:"reason"`
}

// MergeResult reports what happened to each guest line.
type MergeResult struct {
	Cart     *CartView      `json:"cart"`
	Merged   int            `json:"merged"`
	Rejected []RejectedItem `json:"rejected"`
}

// SubtotalCents is the sum of price times quantity over the lines.
func SubtotalCents(lines []models.CartLineItem) int {
	total := 0
	for _, line := range lines {
		total += line.PriceCents * line.Quantity
	}
	return total
}

func emptyView(userID uuid.UUID) *CartView {
	return &CartView{UserID: userID, Items: []LineView{}}
}

func toView(cart *models.Cart) *CartView {
	if cart == nil {
		return nil
	}
	id := cart.ID
	updated := cart.UpdatedAt
	view := &CartView{
		ID:        &id,
		UserID:    cart.UserID,
		Items:     make([]LineView, 0, len(cart.Items)),
		UpdatedAt: &updated,
	}
	for _, line := range cart.Items {
		view.Items = append(view.Items, LineView{
			ID:             line.ID,
			EntityType:     line.EntityType,
			EntityID:       line.EntityID,
			VendorID:       line.VendorID,
			RestaurantID:   line.RestaurantID,
			Name:           line.Name,
			PriceCents:     line.PriceCents,
			ImageURL:       line.ImageURL,
			Quantity:       line.Quantity,
			Size:           line.Size,
			Color:          line.Color,
			LineTotalCents: line.PriceCents * line.Quantity,
		})
		view.ItemCount += line.Quantity
	}
	view.SubtotalCents = SubtotalCents(cart.Items)
	view.TotalCents = view.SubtotalCents
	return view
}
