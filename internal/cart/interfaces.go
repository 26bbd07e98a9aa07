package cart

import (
	"context"

	"github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence for carts and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLineItem, error)
	FindLineByIdentity(ctx context.Context, cartID uuid.UUID, ref catalog.ItemRef) (*models.CartLineItem, error)
	CreateLine(ctx context.Context, line *models.CartLineItem) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotalCents, totalCents int) error
}
