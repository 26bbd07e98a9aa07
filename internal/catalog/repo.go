package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/tristore-backend/pkg/db"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errStockGuard aborts the savepoint when a conditional decrement matches no row.
var errStockGuard = errors.New("stock guard failed")

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateGrocery(ctx context.Context, product *models.GroceryProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindGrocery(ctx context.Context, id uuid.UUID) (*models.GroceryProduct, error) {
	var product models.GroceryProduct
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) UpdateGrocery(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return updateByID(ctx, r.db, &models.GroceryProduct{}, id, updates)
}

func (r *repository) DeleteGrocery(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.GroceryProduct{}, id)
}

func (r *repository) ListGroceriesByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.GroceryProduct, error) {
	var products []models.GroceryProduct
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *repository) CreateClothing(ctx context.Context, item *models.ClothingItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindClothing(ctx context.Context, id uuid.UUID) (*models.ClothingItem, error) {
	var item models.ClothingItem
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("size ASC, color ASC") }).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateClothing(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return updateByID(ctx, r.db, &models.ClothingItem{}, id, updates)
}

func (r *repository) ReplaceVariants(ctx context.Context, itemID uuid.UUID, variants []models.ClothingVariant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", itemID).Delete(&models.ClothingVariant{}).Error; err != nil {
			return err
		}
		if len(variants) == 0 {
			return nil
		}
		for i := range variants {
			variants[i].ItemID = itemID
		}
		return tx.Create(&variants).Error
	})
}

func (r *repository) DeleteClothing(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&models.ClothingVariant{}).Error; err != nil {
			return err
		}
		return deleteByID(ctx, tx, &models.ClothingItem{}, id)
	})
}

func (r *repository) ListClothingByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.ClothingItem, error) {
	var items []models.ClothingItem
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *repository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	return r.db.WithContext(ctx).Create(restaurant).Error
}

func (r *repository) FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) UpdateRestaurant(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return updateByID(ctx, r.db, &models.Restaurant{}, id, updates)
}

func (r *repository) ListRestaurantsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&restaurants).Error
	return restaurants, err
}

func (r *repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateMenuItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return updateByID(ctx, r.db, &models.MenuItem{}, id, updates)
}

func (r *repository) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.MenuItem{}, id)
}

func (r *repository) ListMenuItemsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *repository) DecrementStock(ctx context.Context, ref ItemRef, qty int) (bool, error) {
	if !ref.EntityType.IsStockTracked() {
		return true, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ref.HasVariant() {
			res := tx.Model(&models.ClothingVariant{}).
				Where("item_id = ? AND size = ? AND color = ? AND stock >= ?", ref.EntityID, ref.Size, ref.Color, qty).
				UpdateColumn("stock", gorm.Expr("stock - ?", qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStockGuard
			}
		}
		res := tx.Table(stockTable(ref.EntityType)).
			Where("id = ? AND stock >= ?", ref.EntityID, qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStockGuard
		}
		return nil
	})
	// the CHECK (stock >= 0) constraint is the last line of defence
	if errors.Is(err, errStockGuard) || db.IsCheckViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) RestoreStock(ctx context.Context, ref ItemRef, qty int) error {
	if !ref.EntityType.IsStockTracked() || qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ref.HasVariant() {
			if err := tx.Model(&models.ClothingVariant{}).
				Where("item_id = ? AND size = ? AND color = ?", ref.EntityID, ref.Size, ref.Color).
				UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error; err != nil {
				return err
			}
		}
		return tx.Table(stockTable(ref.EntityType)).
			Where("id = ?", ref.EntityID).
			UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
	})
}

func stockTable(entityType enums.EntityType) string {
	if entityType == enums.EntityTypeClothes {
		return models.ClothingItem{}.TableName()
	}
	return models.GroceryProduct{}.TableName()
}

func updateByID(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, id uuid.UUID) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
