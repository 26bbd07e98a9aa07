package orders

import (
	"time"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/pagination"
	"github.com/angelmondragon/tristore-backend/pkg/types"
	"github.com/google/uuid"
)

// ErrInvalidCursor is returned when a list cursor cannot be decoded.
var ErrInvalidCursor = pagination.ErrInvalidCursor

// PlaceOrderInput is the checkout request; the cart itself is implicit.
type PlaceOrderInput struct {
	DeliveryAddress types.Address       `json:"delivery_address"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	IsTryAtHome     bool                `json:"is_try_at_home"`
}

// UpdateStatusInput moves an order along its lifecycle and/or assigns a delivery agent.
type UpdateStatusInput struct {
	Status          *enums.OrderStatus `json:"status,omitempty"`
	DeliveryAgentID *uuid.UUID         `json:"delivery_agent_id,omitempty"`
	Reason          string             `json:"reason,omitempty"`
}

// ReturnedItemInput names one line coming back from a try-at-home trial.
type ReturnedItemInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
	Reason   *string   `json:"reason,omitempty"`
}

// TryAtHomeInput moves the try-at-home sub-status.
type TryAtHomeInput struct {
	Status        enums.TryAtHomeStatus `json:"status"`
	ReturnedItems []ReturnedItemInput   `json:"returned_items"`
}

// LineView is the client representation of an order line.
type LineView struct {
	ID               uuid.UUID        `json:"id"`
	EntityType       enums.EntityType `json:"entity_type"`
	EntityID         uuid.UUID        `json:"entity_id"`
	VendorID         uuid.UUID        `json:"vendor_id"`
	RestaurantID     *uuid.UUID       `json:"restaurant_id,omitempty"`
	Name             string           `json:"name"`
	PriceCents       int              `json:"price_cents"`
	ImageURL         *string          `json:"image_url,omitempty"`
	Quantity         int              `json:"quantity"`
	Size             string           `json:"size,omitempty"`
	Color            string           `json:"color,omitempty"`
	LineTotalCents   int              `json:"line_total_cents"`
	IsReturned       bool             `json:"is_returned"`
	ReturnedQuantity int              `json:"returned_quantity"`
	ReturnReason     *string          `json:"return_reason,omitempty"`
}

// OrderView is the full order as seen by its owner, admins and the assigned agent.
type OrderView struct {
	ID                  uuid.UUID              `json:"id"`
	OrderNumber         string                 `json:"order_number"`
	UserID              uuid.UUID              `json:"user_id"`
	Items               []LineView             `json:"items"`
	TotalCents          int                    `json:"total_cents"`
	DeliveryAddress     types.Address          `json:"delivery_address"`
	PaymentMethod       enums.PaymentMethod    `json:"payment_method"`
	PaymentStatus       enums.PaymentStatus    `json:"payment_status"`
	OrderStatus         enums.OrderStatus      `json:"order_status"`
	DeliveryAgentID     *uuid.UUID             `json:"delivery_agent_id,omitempty"`
	IsTryAtHome         bool                   `json:"is_try_at_home"`
	TryAtHomeStatus     *enums.TryAtHomeStatus `json:"try_at_home_status,omitempty"`
	EstimatedDeliveryAt time.Time              `json:"estimated_delivery_at"`
	ActualDeliveryAt    *time.Time             `json:"actual_delivery_at,omitempty"`
	CancellationReason  *string                `json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// VendorOrderView is a multi-vendor order restricted to one vendor's lines.
// SubtotalCents covers those lines only, never the order total.
type VendorOrderView struct {
	ID                  uuid.UUID              `json:"id"`
	OrderNumber         string                 `json:"order_number"`
	VendorID            uuid.UUID              `json:"vendor_id"`
	Items               []LineView             `json:"items"`
	SubtotalCents       int                    `json:"subtotal_cents"`
	DeliveryAddress     types.Address          `json:"delivery_address"`
	PaymentMethod       enums.PaymentMethod    `json:"payment_method"`
	PaymentStatus       enums.PaymentStatus    `json:"payment_status"`
	OrderStatus         enums.OrderStatus      `json:"order_status"`
	IsTryAtHome         bool                   `json:"is_try_at_home"`
	TryAtHomeStatus     *enums.TryAtHomeStatus `json:"try_at_home_status,omitempty"`
	EstimatedDeliveryAt time.Time              `json:"estimated_delivery_at"`
	ActualDeliveryAt    *time.Time             `json:"actual_delivery_at,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
}

// VendorOrderList wraps a page of vendor projections.
type VendorOrderList struct {
	Orders     []VendorOrderView `json:"orders"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toLineView(line models.OrderLineItem) LineView {
	return LineView{
		ID:               line.ID,
		EntityType:       line.EntityType,
		EntityID:         line.EntityID,
		VendorID:         line.VendorID,
		RestaurantID:     line.RestaurantID,
		Name:             line.Name,
		PriceCents:       line.PriceCents,
		ImageURL:         line.ImageURL,
		Quantity:         line.Quantity,
		Size:             line.Size,
		Color:            line.Color,
		LineTotalCents:   line.LineTotalCents(),
		IsReturned:       line.IsReturned,
		ReturnedQuantity: line.ReturnedQuantity,
		ReturnReason:     line.ReturnReason,
	}
}

// ToView converts a persisted order into its client representation.
func ToView(order *models.Order) *OrderView {
	items := make([]LineView, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, toLineView(line))
	}
	return &OrderView{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		UserID:              order.UserID,
		Items:               items,
		TotalCents:          order.TotalCents,
		DeliveryAddress:     order.DeliveryAddress,
		PaymentMethod:       order.PaymentMethod,
		PaymentStatus:       order.PaymentStatus,
		OrderStatus:         order.OrderStatus,
		DeliveryAgentID:     order.DeliveryAgentID,
		IsTryAtHome:         order.IsTryAtHome,
		TryAtHomeStatus:     order.TryAtHomeStatus,
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
		ActualDeliveryAt:    order.ActualDeliveryAt,
		CancellationReason:  order.CancellationReason,
		CancelledAt:         order.CancelledAt,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

func toList(page *OrderPage) *OrderList {
	list := &OrderList{Orders: make([]OrderView, 0, len(page.Orders)), NextCursor: page.NextCursor}
	for i := range page.Orders {
		list.Orders = append(list.Orders, *ToView(&page.Orders[i]))
	}
	return list
}
