package catalog

import (
	"context"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence for the three catalog variants and their stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateGrocery(ctx context.Context, product *models.GroceryProduct) error
	FindGrocery(ctx context.Context, id uuid.UUID) (*models.GroceryProduct, error)
	UpdateGrocery(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteGrocery(ctx context.Context, id uuid.UUID) error
	ListGroceriesByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.GroceryProduct, error)

	CreateClothing(ctx context.Context, item *models.ClothingItem) error
	FindClothing(ctx context.Context, id uuid.UUID) (*models.ClothingItem, error)
	UpdateClothing(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplaceVariants(ctx context.Context, itemID uuid.UUID, variants []models.ClothingVariant) error
	DeleteClothing(ctx context.Context, id uuid.UUID) error
	ListClothingByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.ClothingItem, error)

	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListRestaurantsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Restaurant, error)

	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
	ListMenuItemsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.MenuItem, error)

	// DecrementStock removes qty units only when enough stock remains. It reports
	// false without touching any row when the guard fails.
	DecrementStock(ctx context.Context, ref ItemRef, qty int) (bool, error)
	// RestoreStock returns qty units to the entity (and its variant cell).
	RestoreStock(ctx context.Context, ref ItemRef, qty int) error
}
