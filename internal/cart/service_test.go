package cart

import (
	"context"
	"strings"
	"testing"

	"github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type cartFixture struct {
	db   *gorm.DB
	svc  Service
	repo Repository
}

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func newCartFixture(t *testing.T, cache Cache) cartFixture {
	t.Helper()
	conn := setupCartTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Catalog: catalog.NewRepository(conn),
		Tx:      db.NewFromGorm(conn),
		Cache:   cache,
	})
	require.NoError(t, err)
	return cartFixture{db: conn, svc: svc, repo: repo}
}

func shopper() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Role: enums.RoleUser}
}

func (f cartFixture) grocery(t *testing.T, price, stock int) *models.GroceryProduct {
	t.Helper()
	p := &models.GroceryProduct{VendorID: uuid.New(), Name: "Eggs", PriceCents: price, Unit: "dozen", Stock: stock, IsAvailable: true}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f cartFixture) shirt(t *testing.T, price int, variants ...models.ClothingVariant) *models.ClothingItem {
	t.Helper()
	total := 0
	for _, v := range variants {
		total += v.Stock
	}
	item := &models.ClothingItem{VendorID: uuid.New(), Name: "Oxford Shirt", PriceCents: price, Stock: total, IsAvailable: true, Variants: variants}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func TestGetCart_EmptyWithoutCreating(t *testing.T) {
	f := newCartFixture(t, nil)
	actor := shopper()

	view, err := f.svc.GetCart(context.Background(), actor)
	require.NoError(t, err)
	assert.Nil(t, view.ID)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalCents)

	var count int64
	require.NoError(t, f.db.Model(&models.Cart{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddToCart_MergesIdenticalLines(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	eggs := f.grocery(t, 300, 10)

	_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 2})
	require.NoError(t, err)
	view, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 1500, view.SubtotalCents)
	assert.Equal(t, 1500, view.TotalCents)
	assert.Equal(t, eggs.VendorID, view.Items[0].VendorID)

	stored, err := f.repo.FindByUser(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1500, stored.SubtotalCents)
}

func TestAddToCart_MergedQuantityIsRevalidated(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	eggs := f.grocery(t, 300, 4)

	_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 2})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeItemUnavailable))

	view, err := f.svc.GetCart(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestAddToCart_VariantsAreDistinctLines(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	shirt := f.shirt(t, 2000,
		models.ClothingVariant{Size: "M", Color: "white", Stock: 3},
		models.ClothingVariant{Size: "L", Color: "white", Stock: 3},
	)

	_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeClothes, EntityID: shirt.ID, Quantity: 1, Size: "M", Color: "white"})
	require.NoError(t, err)
	view, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeClothes, EntityID: shirt.ID, Quantity: 1, Size: "L", Color: "white"})
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 4000, view.SubtotalCents)
}

func TestUpdateCartItem(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	eggs := f.grocery(t, 250, 5)

	view, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 1})
	require.NoError(t, err)
	lineID := view.Items[0].ID

	_, err = f.svc.UpdateCartItem(ctx, actor, lineID, 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateCartItem(ctx, actor, lineID, 6)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeItemUnavailable))

	view, err = f.svc.UpdateCartItem(ctx, actor, lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 1000, view.TotalCents)

	_, err = f.svc.UpdateCartItem(ctx, actor, uuid.New(), 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.UpdateCartItem(ctx, shopper(), lineID, 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "another user's line is invisible")
}

func TestRemoveAndClear(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	a := f.grocery(t, 100, 5)
	b := f.grocery(t, 200, 5)

	_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: a.ID, Quantity: 1})
	require.NoError(t, err)
	view, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: b.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 500, view.SubtotalCents)

	var lineA uuid.UUID
	for _, item := range view.Items {
		if item.EntityID == a.ID {
			lineA = item.ID
		}
	}
	view, err = f.svc.RemoveItem(ctx, actor, lineA)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 400, view.SubtotalCents)

	view, err = f.svc.ClearCart(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.NotNil(t, view.ID, "clear keeps the cart row")

	stored, err := f.repo.FindByUser(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.Zero(t, stored.TotalCents)
}

func TestValidateCart_ReportsEveryInvalidLine(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	ok := f.grocery(t, 100, 5)
	short := f.grocery(t, 100, 5)
	gone := f.grocery(t, 100, 5)

	for _, id := range []uuid.UUID{ok.ID, short.ID, gone.ID} {
		_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: id, Quantity: 2})
		require.NoError(t, err)
	}
	require.NoError(t, f.db.Model(short).Update("stock", 1).Error)
	require.NoError(t, f.db.Delete(gone).Error)

	result, err := f.svc.ValidateCart(ctx, actor)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.InvalidItems, 2)

	reasons := map[string]bool{}
	for _, item := range result.InvalidItems {
		reasons[item.Reason] = true
	}
	assert.True(t, reasons["only 1 left in stock"])
	assert.True(t, reasons[catalog.ReasonNoLongerExists])

	var reloaded models.GroceryProduct
	require.NoError(t, f.db.First(&reloaded, "id = ?", ok.ID).Error)
	assert.Equal(t, 5, reloaded.Stock, "validation never mutates stock")
}

func TestValidateCart_VariantLinesShareItemStock(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	item := f.shirt(t, 2500,
		models.ClothingVariant{Size: "M", Color: "Blue", Stock: 2},
		models.ClothingVariant{Size: "L", Color: "Blue", Stock: 2},
	)

	for _, size := range []string{"M", "L"} {
		_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeClothes, EntityID: item.ID, Quantity: 2, Size: size, Color: "Blue"})
		require.NoError(t, err)
	}
	result, err := f.svc.ValidateCart(ctx, actor)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	require.NoError(t, f.db.Model(item).Update("stock", 3).Error)
	result, err = f.svc.ValidateCart(ctx, actor)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.InvalidItems, 2)
	assert.Equal(t, "only 1 left in stock", result.InvalidItems[0].Reason)
}

func TestMergeGuestCart_KeepsRejectedItems(t *testing.T) {
	f := newCartFixture(t, nil)
	ctx := context.Background()
	actor := shopper()
	eggs := f.grocery(t, 300, 10)
	scarce := f.grocery(t, 100, 1)

	_, err := f.svc.AddToCart(ctx, actor, AddItemInput{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 1})
	require.NoError(t, err)

	result, err := f.svc.MergeGuestCart(ctx, actor, []AddItemInput{
		{EntityType: enums.EntityTypeGrocery, EntityID: eggs.ID, Quantity: 2},
		{EntityType: enums.EntityTypeGrocery, EntityID: scarce.ID, Quantity: 3},
		{EntityType: enums.EntityTypeGrocery, EntityID: uuid.New(), Quantity: 1},
		{EntityType: "furniture", EntityID: uuid.New(), Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)
	require.Len(t, result.Rejected, 3)
	assert.Equal(t, scarce.ID, result.Rejected[0].EntityID)
	assert.Equal(t, "only 1 left in stock", result.Rejected[0].Reason)
	assert.Equal(t, catalog.ReasonNoLongerExists, result.Rejected[1].Reason)

	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, 3, result.Cart.Items[0].Quantity)
	assert.Equal(t, 900, result.Cart.TotalCents)
}

func TestBlockedActorRejected(t *testing.T) {
	f := newCartFixture(t, nil)
	blocked := auth.Actor{UserID: uuid.New(), Role: enums.RoleUser, IsBlocked: true}
	_, err := f.svc.GetCart(context.Background(), blocked)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.GetCart(context.Background(), auth.Actor{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}
