package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	OrderNumberExists(ctx context.Context, number string) (bool, error)
	// TransitionStatus applies updates only while the order is still in from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error)
	// TransitionTryAtHome moves the try-at-home sub-status only while it is still from
	// and the order has not been cancelled.
	TransitionTryAtHome(ctx context.Context, id uuid.UUID, from, to enums.TryAtHomeStatus) (bool, error)
	AssignDeliveryAgent(ctx context.Context, id uuid.UUID, agentID uuid.UUID) error
	MarkLineReturned(ctx context.Context, lineID uuid.UUID, quantity int, reason *string) (bool, error)
	List(ctx context.Context, filters Filters, params pagination.Params) (*OrderPage, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, filters Filters, params pagination.Params) (*OrderPage, error)
}

// Filters narrow order lists. They apply to the order row, before any vendor projection.
type Filters struct {
	UserID          *uuid.UUID
	DeliveryAgentID *uuid.UUID
	Status          *enums.OrderStatus
	DateFrom        *time.Time
	DateTo          *time.Time
}

// OrderPage is one cursor page of orders, newest first.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}
