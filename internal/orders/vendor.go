package orders

import (
	"context"

	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/angelmondragon/tristore-backend/pkg/pagination"
	"github.com/google/uuid"
)

// ProjectForVendor restricts order to the lines sold by vendorID. The subtotal is
// computed from those lines alone. It reports false when the vendor has no line.
func ProjectForVendor(order *models.Order, vendorID uuid.UUID) (VendorOrderView, bool) {
	view := VendorOrderView{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		VendorID:            vendorID,
		Items:               []LineView{},
		DeliveryAddress:     order.DeliveryAddress,
		PaymentMethod:       order.PaymentMethod,
		PaymentStatus:       order.PaymentStatus,
		OrderStatus:         order.OrderStatus,
		IsTryAtHome:         order.IsTryAtHome,
		TryAtHomeStatus:     order.TryAtHomeStatus,
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
		ActualDeliveryAt:    order.ActualDeliveryAt,
		CreatedAt:           order.CreatedAt,
	}
	for _, line := range order.Items {
		if line.VendorID != vendorID {
			continue
		}
		view.Items = append(view.Items, toLineView(line))
		view.SubtotalCents += line.LineTotalCents()
	}
	return view, len(view.Items) > 0
}

func requireVendorScope(actor auth.Actor, vendorID uuid.UUID) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsVerifiedVendor() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "verified vendor role required")
	}
	if actor.UserID != vendorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "vendors may only view their own orders")
	}
	return nil
}

func (s *service) GetVendorOrders(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, filters Filters, params pagination.Params) (*VendorOrderList, error) {
	if err := requireVendorScope(actor, vendorID); err != nil {
		return nil, err
	}
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	filters.UserID = nil
	filters.DeliveryAgentID = nil

	page, err := s.repo.ListForVendor(ctx, vendorID, filters, params)
	if err != nil {
		return nil, listError(err)
	}
	list := &VendorOrderList{
		Orders:     make([]VendorOrderView, 0, len(page.Orders)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Orders {
		if view, ok := ProjectForVendor(&page.Orders[i], vendorID); ok {
			list.Orders = append(list.Orders, view)
		}
	}
	if s.logg != nil {
		logCtx := s.logg.WithField(s.logg.WithVendorID(ctx, vendorID.String()), "orders", len(list.Orders))
		s.logg.Debug(logCtx, "vendor orders listed")
	}
	return list, nil
}

func (s *service) GetVendorOrder(ctx context.Context, actor auth.Actor, vendorID, orderID uuid.UUID) (*VendorOrderView, error) {
	if err := requireVendorScope(actor, vendorID); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view, ok := ProjectForVendor(order, vendorID)
	if !ok {
		// a vendor without lines must not learn the order exists
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &view, nil
}
