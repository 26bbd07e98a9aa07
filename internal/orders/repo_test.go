package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, vendorID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:         NewOrderNumber(createdAt),
		UserID:              uuid.New(),
		TotalCents:          600,
		DeliveryAddress:     address(),
		PaymentMethod:       enums.PaymentMethodCOD,
		PaymentStatus:       enums.PaymentStatusPending,
		OrderStatus:         enums.OrderStatusPlaced,
		EstimatedDeliveryAt: createdAt.Add(time.Hour),
		CreatedAt:           createdAt,
		Items: []models.OrderLineItem{{
			EntityType: enums.EntityTypeGrocery,
			EntityID:   uuid.New(),
			VendorID:   vendorID,
			Name:       "Brown Eggs",
			PriceCents: 300,
			Quantity:   2,
		}},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, uuid.New(), time.Now().UTC())

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
	assert.Equal(t, address(), found.DeliveryAddress)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 600, found.Items[0].LineTotalCents())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	exists, err := repo.OrderNumberExists(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepositoryTransitionStatus_GuardsOnCurrentStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, uuid.New(), time.Now().UTC())

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPlaced, map[string]any{"order_status": enums.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPlaced, map[string]any{"order_status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.False(t, ok, "stale from status must not apply")

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, found.OrderStatus)
}

func TestRepositoryMarkLineReturned_Once(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, uuid.New(), time.Now().UTC())
	lineID := order.Items[0].ID

	ok, err := repo.MarkLineReturned(ctx, lineID, 1, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkLineReturned(ctx, lineID, 1, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryListForVendor_Pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	vendorID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	oldest := seedOrder(t, db, vendorID, base)
	middle := seedOrder(t, db, vendorID, base.Add(time.Minute))
	newest := seedOrder(t, db, vendorID, base.Add(2*time.Minute))
	seedOrder(t, db, uuid.New(), base.Add(3*time.Minute))

	page, err := repo.ListForVendor(ctx, vendorID, Filters{}, paginationParams(2, ""))
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, newest.ID, page.Orders[0].ID)
	assert.Equal(t, middle.ID, page.Orders[1].ID)
	require.NotEmpty(t, page.NextCursor)
	require.Len(t, page.Orders[0].Items, 1)

	page, err = repo.ListForVendor(ctx, vendorID, Filters{}, paginationParams(2, page.NextCursor))
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, oldest.ID, page.Orders[0].ID)
	assert.Empty(t, page.NextCursor)

	_, err = repo.ListForVendor(ctx, vendorID, Filters{}, paginationParams(2, "not-base64!"))
	assert.True(t, errors.Is(err, ErrInvalidCursor))
}

func TestNextOrderNumber_RetriesCollisions(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	taken := seedOrder(t, db, uuid.New(), now)

	candidates := []string{taken.OrderNumber, "TS-20260301-FRESH1"}
	calls := 0
	number, err := nextOrderNumber(context.Background(), repo, now, func(time.Time) string {
		defer func() { calls++ }()
		return candidates[calls]
	})
	require.NoError(t, err)
	assert.Equal(t, "TS-20260301-FRESH1", number)
	assert.Equal(t, 2, calls)

	_, err = nextOrderNumber(context.Background(), repo, now, func(time.Time) string { return taken.OrderNumber })
	assert.Error(t, err)
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Regexp(t, `^TS-20261231-[0-9A-Z]{6}$`, NewOrderNumber(now))
	assert.NotEqual(t, NewOrderNumber(now), NewOrderNumber(now))
}
