package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
)

// OrderLineItem is a deep copy of a cart line tagged with its vendor.
type OrderLineItem struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	Position         int              `gorm:"column:position;not null"`
	EntityType       enums.EntityType `gorm:"column:entity_type;type:text;not null"`
	EntityID         uuid.UUID        `gorm:"column:entity_id;type:uuid;not null"`
	VendorID         uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	RestaurantID     *uuid.UUID       `gorm:"column:restaurant_id;type:uuid"`
	Name             string           `gorm:"column:name;not null"`
	PriceCents       int              `gorm:"column:price_cents;not null"`
	ImageURL         *string          `gorm:"column:image_url"`
	Quantity         int              `gorm:"column:quantity;not null"`
	Size             string           `gorm:"column:size;not null"`
	Color            string           `gorm:"column:color;not null"`
	IsReturned       bool             `gorm:"column:is_returned;not null"`
	ReturnedQuantity int              `gorm:"column:returned_quantity;not null"`
	ReturnReason     *string          `gorm:"column:return_reason"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }

func (m *OrderLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// LineTotalCents is price times quantity.
func (m OrderLineItem) LineTotalCents() int {
	return m.PriceCents * m.Quantity
}
