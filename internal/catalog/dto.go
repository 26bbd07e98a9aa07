package catalog

import (
	"strings"
	"time"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/google/uuid"
)

// GroceryInput is the full representation a vendor submits for a grocery product.
type GroceryInput struct {
	Name        string  `json:"name" validate:"required"`
	PriceCents  int     `json:"price_cents" validate:"gte=0"`
	ImageURL    *string `json:"image_url,omitempty"`
	Unit        string  `json:"unit" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
	IsAvailable bool    `json:"is_available"`
}

// VariantInput is one size/color cell with its stock.
type VariantInput struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// ClothingInput replaces the clothing item and its variant matrix.
type ClothingInput struct {
	Name        string         `json:"name" validate:"required"`
	PriceCents  int            `json:"price_cents" validate:"gte=0"`
	ImageURL    *string        `json:"image_url,omitempty"`
	Stock       int            `json:"stock" validate:"gte=0"`
	IsAvailable bool           `json:"is_available"`
	Variants    []VariantInput `json:"variants" validate:"dive"`
}

// RestaurantInput creates a restaurant.
type RestaurantInput struct {
	Name   string `json:"name" validate:"required"`
	IsOpen bool   `json:"is_open"`
}

// MenuItemInput is the full representation of a menu item.
type MenuItemInput struct {
	RestaurantID uuid.UUID `json:"restaurant_id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	PriceCents   int       `json:"price_cents" validate:"gte=0"`
	ImageURL     *string   `json:"image_url,omitempty"`
	IsAvailable  bool      `json:"is_available"`
}

// VariantView is the public variant shape.
type VariantView struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

// EntityView is the public, variant-agnostic shape of a catalog entity.
type EntityView struct {
	EntityType   enums.EntityType `json:"entity_type"`
	ID           uuid.UUID        `json:"id"`
	VendorID     uuid.UUID        `json:"vendor_id"`
	RestaurantID *uuid.UUID       `json:"restaurant_id,omitempty"`
	Name         string           `json:"name"`
	PriceCents   int              `json:"price_cents"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Unit         string           `json:"unit,omitempty"`
	Stock        *int             `json:"stock,omitempty"`
	IsAvailable  bool             `json:"is_available"`
	Variants     []VariantView    `json:"variants,omitempty"`
}

// RestaurantView is the public restaurant shape.
type RestaurantView struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	IsOpen    bool      `json:"is_open"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func restaurantView(r models.Restaurant) RestaurantView {
	return RestaurantView{
		ID:        r.ID,
		VendorID:  r.VendorID,
		Name:      r.Name,
		IsOpen:    r.IsOpen,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// VendorCatalog lists every entity a vendor owns.
type VendorCatalog struct {
	Groceries   []EntityView        `json:"groceries"`
	Clothing    []EntityView        `json:"clothing"`
	Restaurants []RestaurantView `json:"restaurants"`
	MenuItems   []EntityView        `json:"menu_items"`
}

func groceryView(p models.GroceryProduct) EntityView {
	stock := p.Stock
	return EntityView{
		EntityType:  enums.EntityTypeGrocery,
		ID:          p.ID,
		VendorID:    p.VendorID,
		Name:        p.Name,
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
		Unit:        p.Unit,
		Stock:       &stock,
		IsAvailable: p.IsAvailable,
	}
}

func clothingView(item models.ClothingItem) EntityView {
	stock := item.Stock
	variants := make([]VariantView, 0, len(item.Variants))
	for _, v := range item.Variants {
		variants = append(variants, VariantView{Size: v.Size, Color: v.Color, Stock: v.Stock})
	}
	return EntityView{
		EntityType:  enums.EntityTypeClothes,
		ID:          item.ID,
		VendorID:    item.VendorID,
		Name:        item.Name,
		PriceCents:  item.PriceCents,
		ImageURL:    item.ImageURL,
		Stock:       &stock,
		IsAvailable: item.IsAvailable,
		Variants:    variants,
	}
}

func menuItemView(item models.MenuItem) EntityView {
	restaurantID := item.RestaurantID
	return EntityView{
		EntityType:   enums.EntityTypeFood,
		ID:           item.ID,
		VendorID:     item.VendorID,
		RestaurantID: &restaurantID,
		Name:         item.Name,
		PriceCents:   item.PriceCents,
		ImageURL:     item.ImageURL,
		IsAvailable:  item.IsAvailable,
	}
}

func validateListing(name string, priceCents, stock int) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if priceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be >= 0")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be >= 0")
	}
	return nil
}

// buildVariants validates the matrix and returns the rows plus the derived item total.
func buildVariants(inputs []VariantInput) ([]models.ClothingVariant, int, error) {
	seen := make(map[string]struct{}, len(inputs))
	variants := make([]models.ClothingVariant, 0, len(inputs))
	total := 0
	for _, in := range inputs {
		size := strings.TrimSpace(in.Size)
		color := strings.TrimSpace(in.Color)
		if size == "" && color == "" {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "variant requires size or color")
		}
		if in.Stock < 0 {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "variant stock must be >= 0")
		}
		key := size + "|" + color
		if _, dup := seen[key]; dup {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "duplicate variant "+key)
		}
		seen[key] = struct{}{}
		variants = append(variants, models.ClothingVariant{Size: size, Color: color, Stock: in.Stock})
		total += in.Stock
	}
	return variants, total, nil
}
