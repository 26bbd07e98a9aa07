package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
)

// Cart is the single active cart of a user. Totals mirror the line items.
type Cart struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	SubtotalCents int            `gorm:"column:subtotal_cents;not null"`
	TotalCents    int            `gorm:"column:total_cents;not null"`
	Items         []CartLineItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

func (m *Cart) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// CartLineItem snapshots the catalog entity at add time.
type CartLineItem struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CartID       uuid.UUID        `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_line_identity"`
	EntityType   enums.EntityType `gorm:"column:entity_type;type:text;not null;uniqueIndex:ux_cart_line_identity"`
	EntityID     uuid.UUID        `gorm:"column:entity_id;type:uuid;not null;uniqueIndex:ux_cart_line_identity"`
	Size         string           `gorm:"column:size;not null;uniqueIndex:ux_cart_line_identity"`
	Color        string           `gorm:"column:color;not null;uniqueIndex:ux_cart_line_identity"`
	VendorID     uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null"`
	RestaurantID *uuid.UUID       `gorm:"column:restaurant_id;type:uuid"`
	Name         string           `gorm:"column:name;not null"`
	PriceCents   int              `gorm:"column:price_cents;not null"`
	ImageURL     *string          `gorm:"column:image_url"`
	Quantity     int              `gorm:"column:quantity;not null;check:chk_cart_line_items_quantity,quantity >= 1"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLineItem) TableName() string { return "cart_line_items" }

func (m *CartLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
