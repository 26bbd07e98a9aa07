package orders

import (
	"context"
	"testing"

	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vendor(id uuid.UUID) auth.Actor {
	return auth.Actor{UserID: id, Role: enums.RoleVendor, IsVerified: true}
}

func TestProjectForVendor(t *testing.T) {
	vendorA, vendorB := uuid.New(), uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "TS-20260301-ABC123",
		TotalCents:  2100,
		OrderStatus: enums.OrderStatusPlaced,
		Items: []models.OrderLineItem{
			{ID: uuid.New(), VendorID: vendorA, Name: "Eggs", PriceCents: 300, Quantity: 2},
			{ID: uuid.New(), VendorID: vendorB, Name: "Shirt", PriceCents: 1000, Quantity: 1},
			{ID: uuid.New(), VendorID: vendorA, Name: "Milk", PriceCents: 500, Quantity: 1},
		},
	}

	view, ok := ProjectForVendor(order, vendorA)
	require.True(t, ok)
	require.Len(t, view.Items, 2)
	for _, line := range view.Items {
		assert.Equal(t, vendorA, line.VendorID)
	}
	assert.Equal(t, 1100, view.SubtotalCents)
	assert.Equal(t, vendorA, view.VendorID)

	view, ok = ProjectForVendor(order, uuid.New())
	assert.False(t, ok)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.SubtotalCents)
}

func TestGetVendorOrders_Isolation(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	vendorA, vendorB := uuid.New(), uuid.New()
	eggs := f.grocery(t, vendorA, 300, 10)
	shirt := f.shirt(t, vendorB, "Oxford Shirt", 5)

	buyer := shopper()
	f.addGrocery(t, buyer, eggs.ID, 2)
	f.addShirt(t, buyer, shirt.ID, 1)
	shared := f.place(t, buyer, false)
	require.Equal(t, 600+2500, shared.TotalCents)

	list, err := f.svc.GetVendorOrders(ctx, vendor(vendorA), vendorA, Filters{}, paginationParams(10, ""))
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	view := list.Orders[0]
	assert.Equal(t, shared.ID, view.ID)
	require.Len(t, view.Items, 1)
	assert.Equal(t, eggs.ID, view.Items[0].EntityID)
	assert.Equal(t, 600, view.SubtotalCents)

	list, err = f.svc.GetVendorOrders(ctx, vendor(vendorB), vendorB, Filters{}, paginationParams(10, ""))
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, 2500, list.Orders[0].SubtotalCents)

	_, err = f.svc.GetVendorOrders(ctx, vendor(vendorB), vendorA, Filters{}, paginationParams(10, ""))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "vendors only see themselves")

	unverified := vendor(vendorA)
	unverified.IsVerified = false
	_, err = f.svc.GetVendorOrders(ctx, unverified, vendorA, Filters{}, paginationParams(10, ""))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	list, err = f.svc.GetVendorOrders(ctx, admin(), vendorB, Filters{}, paginationParams(10, ""))
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, 2500, list.Orders[0].SubtotalCents)

	stranger := uuid.New()
	list, err = f.svc.GetVendorOrders(ctx, vendor(stranger), stranger, Filters{}, paginationParams(10, ""))
	require.NoError(t, err)
	assert.Empty(t, list.Orders)
}

func TestGetVendorOrders_FiltersApplyToOrder(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	vendorA := uuid.New()
	eggs := f.grocery(t, vendorA, 300, 10)

	buyer := shopper()
	f.addGrocery(t, buyer, eggs.ID, 1)
	first := f.place(t, buyer, false)
	f.addGrocery(t, buyer, eggs.ID, 1)
	second := f.place(t, buyer, false)
	f.advance(t, second.ID, enums.OrderStatusConfirmed)

	confirmed := enums.OrderStatusConfirmed
	list, err := f.svc.GetVendorOrders(ctx, vendor(vendorA), vendorA, Filters{Status: &confirmed}, paginationParams(10, ""))
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, second.ID, list.Orders[0].ID)

	placed := enums.OrderStatusPlaced
	list, err = f.svc.GetVendorOrders(ctx, vendor(vendorA), vendorA, Filters{Status: &placed}, paginationParams(10, ""))
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, first.ID, list.Orders[0].ID)
}

func TestGetVendorOrder(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	vendorA, vendorB := uuid.New(), uuid.New()
	eggs := f.grocery(t, vendorA, 300, 10)

	buyer := shopper()
	f.addGrocery(t, buyer, eggs.ID, 3)
	order := f.place(t, buyer, false)

	view, err := f.svc.GetVendorOrder(ctx, vendor(vendorA), vendorA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 900, view.SubtotalCents)

	_, err = f.svc.GetVendorOrder(ctx, vendor(vendorB), vendorB, order.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
