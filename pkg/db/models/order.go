package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/types"
)

// Order is the immutable record created from a cart. Only status fields and per-line
// return flags change after creation.
type Order struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         string                 `gorm:"column:order_number;not null;uniqueIndex"`
	UserID              uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	TotalCents          int                    `gorm:"column:total_cents;not null"`
	DeliveryAddress     types.Address          `gorm:"column:delivery_address;type:jsonb;serializer:json;not null"`
	PaymentMethod       enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus       enums.PaymentStatus    `gorm:"column:payment_status;type:text;not null"`
	OrderStatus         enums.OrderStatus      `gorm:"column:order_status;type:text;not null;index"`
	DeliveryAgentID     *uuid.UUID             `gorm:"column:delivery_agent_id;type:uuid;index"`
	IsTryAtHome         bool                   `gorm:"column:is_try_at_home;not null"`
	TryAtHomeStatus     *enums.TryAtHomeStatus `gorm:"column:try_at_home_status;type:text"`
	EstimatedDeliveryAt time.Time              `gorm:"column:estimated_delivery_at;not null"`
	ActualDeliveryAt    *time.Time             `gorm:"column:actual_delivery_at"`
	CancellationReason  *string                `gorm:"column:cancellation_reason"`
	CancelledAt         *time.Time             `gorm:"column:cancelled_at"`
	Items               []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time              `gorm:"column:created_at;index"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (m *Order) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}
