package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroceryProduct is a stock-tracked grocery listing.
type GroceryProduct struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorID    uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	PriceCents  int       `gorm:"column:price_cents;not null"`
	ImageURL    *string   `gorm:"column:image_url"`
	Unit        string    `gorm:"column:unit;not null"`
	Stock       int       `gorm:"column:stock;not null;check:chk_grocery_products_stock,stock >= 0"`
	IsAvailable bool      `gorm:"column:is_available;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (GroceryProduct) TableName() string { return "grocery_products" }

func (m *GroceryProduct) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// ClothingItem is a stock-tracked apparel listing. Stock is the total across variants.
type ClothingItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	VendorID    uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name        string            `gorm:"column:name;not null"`
	PriceCents  int               `gorm:"column:price_cents;not null"`
	ImageURL    *string           `gorm:"column:image_url"`
	Stock       int               `gorm:"column:stock;not null;check:chk_clothing_items_stock,stock >= 0"`
	IsAvailable bool              `gorm:"column:is_available;not null"`
	Variants    []ClothingVariant `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (ClothingItem) TableName() string { return "clothing_items" }

func (m *ClothingItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// ClothingVariant is one cell of the size/color matrix.
type ClothingVariant struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ItemID uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_clothing_variant_cell"`
	Size   string    `gorm:"column:size;not null;uniqueIndex:ux_clothing_variant_cell"`
	Color  string    `gorm:"column:color;not null;uniqueIndex:ux_clothing_variant_cell"`
	Stock  int       `gorm:"column:stock;not null;check:chk_clothing_variants_stock,stock >= 0"`
}

func (ClothingVariant) TableName() string { return "clothing_variants" }

func (m *ClothingVariant) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// Restaurant groups menu items; a closed restaurant cannot take orders.
type Restaurant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorID  uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	IsOpen    bool      `gorm:"column:is_open;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Restaurant) TableName() string { return "restaurants" }

func (m *Restaurant) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// MenuItem has no stock count; availability is the only gate.
type MenuItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RestaurantID uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;index"`
	VendorID     uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	PriceCents   int       `gorm:"column:price_cents;not null"`
	ImageURL     *string   `gorm:"column:image_url"`
	IsAvailable  bool      `gorm:"column:is_available;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (MenuItem) TableName() string { return "menu_items" }

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
