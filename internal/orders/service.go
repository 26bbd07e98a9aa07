package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/tristore-backend/internal/cart"
	"github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
	"github.com/angelmondragon/tristore-backend/pkg/metrics"
	"github.com/angelmondragon/tristore-backend/pkg/pagination"
	"github.com/angelmondragon/tristore-backend/pkg/realtime"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDeliveryETA is the promised delivery window when none is configured.
const DefaultDeliveryETA = time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the order lifecycle and the vendor-scoped order view.
type Service interface {
	PlaceOrder(ctx context.Context, actor auth.Actor, input PlaceOrderInput) (*OrderView, error)
	UpdateOrderStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderView, error)
	CancelOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID, reason string) (*OrderView, error)
	UpdateTryAtHomeStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input TryAtHomeInput) (*OrderView, error)

	GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderView, error)
	ListUserOrders(ctx context.Context, actor auth.Actor, filters Filters, params pagination.Params) (*OrderList, error)
	ListOrders(ctx context.Context, actor auth.Actor, filters Filters, params pagination.Params) (*OrderList, error)
	ListAssignedOrders(ctx context.Context, actor auth.Actor, filters Filters, params pagination.Params) (*OrderList, error)

	GetVendorOrders(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, filters Filters, params pagination.Params) (*VendorOrderList, error)
	GetVendorOrder(ctx context.Context, actor auth.Actor, vendorID, orderID uuid.UUID) (*VendorOrderView, error)
}

// ServiceParams groups the orders service dependencies. Notifier, CartCache, Metrics,
// Logger and Clock are optional.
type ServiceParams struct {
	Repo        Repository
	Carts       cart.Repository
	Catalog     catalog.Repository
	Tx          txRunner
	Notifier    realtime.Notifier
	CartCache   cart.Cache
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
	Clock       func() time.Time
	DeliveryETA time.Duration
}

type service struct {
	repo        Repository
	carts       cart.Repository
	catalog     catalog.Repository
	resolver    *catalog.Resolver
	tx          txRunner
	notifier    realtime.Notifier
	cartCache   cart.Cache
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	clock       func() time.Time
	deliveryETA time.Duration
	numbers     func(time.Time) string
}

// NewService builds the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	resolver, err := catalog.NewResolver(params.Catalog)
	if err != nil {
		return nil, err
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	eta := params.DeliveryETA
	if eta <= 0 {
		eta = DefaultDeliveryETA
	}
	return &service{
		repo:        params.Repo,
		carts:       params.Carts,
		catalog:     params.Catalog,
		resolver:    resolver,
		tx:          params.Tx,
		notifier:    params.Notifier,
		cartCache:   params.CartCache,
		metrics:     params.Metrics,
		logg:        params.Logger,
		clock:       clock,
		deliveryETA: eta,
		numbers:     NewOrderNumber,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, actor auth.Actor, input PlaceOrderInput) (*OrderView, error) {
	if err := cart.RequireShopper(actor); err != nil {
		return nil, err
	}
	if err := validatePlaceOrder(input); err != nil {
		s.metrics.PlaceFailed(string(pkgerrors.CodeValidation))
		return nil, err
	}

	started := s.clock()
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		userCart, err := carts.FindByUser(ctx, actor.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		if input.IsTryAtHome {
			for _, line := range userCart.Items {
				if line.EntityType != enums.EntityTypeClothes {
					return pkgerrors.New(pkgerrors.CodeValidation, "try-at-home is only available for clothing")
				}
			}
		}

		// validation pass: nothing is written until every line resolves
		resolver := s.resolver.WithTx(tx)
		demand := catalog.Demand{}
		for _, line := range userCart.Items {
			demand.Add(lineRef(line), line.Quantity)
		}
		for _, line := range userCart.Items {
			if _, err := resolver.ResolveWithin(ctx, lineRef(line), line.Quantity, demand); err != nil {
				return placeFailure(line.Name, err)
			}
		}

		if err := decrementAll(ctx, s.catalog.WithTx(tx), userCart.Items); err != nil {
			return err
		}

		number, err := nextOrderNumber(ctx, repo, started, s.numbers)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		order = buildOrder(actor.UserID, number, input, userCart.Items, started, s.deliveryETA)
		if err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, retry checkout")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return cart.Clear(ctx, carts, userCart.ID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.PlaceFailed(string(typed.Code()))
		} else {
			s.metrics.PlaceFailed(string(pkgerrors.CodeInternal))
		}
		return nil, err
	}

	s.metrics.OrderPlaced(s.clock().Sub(started))
	if s.cartCache != nil {
		if err := s.cartCache.Delete(ctx, actor.UserID); err != nil {
			s.warn(ctx, "cart cache invalidation failed", err)
		}
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"order_number": order.OrderNumber,
			"total_cents":  order.TotalCents,
			"line_count":   len(order.Items),
		})
		s.logg.Info(logCtx, "order placed")
	}
	s.notify(ctx, enums.OrderEventTypeNewOrder, order)
	return ToView(order), nil
}

// decrementAll takes stock for every tracked line in a fixed order. A lost race
// surfaces as ITEM_UNAVAILABLE and the caller's transaction rolls back.
func decrementAll(ctx context.Context, repo catalog.Repository, lines []models.CartLineItem) error {
	ordered := make([]models.CartLineItem, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return lineRef(ordered[i]).Less(lineRef(ordered[j]))
	})
	for _, line := range ordered {
		if !line.EntityType.IsStockTracked() {
			continue
		}
		ok, err := repo.DecrementStock(ctx, lineRef(line), line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return catalog.Unavailable(line.Name, "insufficient stock")
		}
	}
	return nil
}

func buildOrder(userID uuid.UUID, number string, input PlaceOrderInput, lines []models.CartLineItem, now time.Time, eta time.Duration) *models.Order {
	order := &models.Order{
		OrderNumber:         number,
		UserID:              userID,
		DeliveryAddress:     input.DeliveryAddress,
		PaymentMethod:       input.PaymentMethod,
		PaymentStatus:       enums.PaymentStatusPending,
		OrderStatus:         enums.OrderStatusPlaced,
		IsTryAtHome:         input.IsTryAtHome,
		EstimatedDeliveryAt: now.Add(eta),
		CreatedAt:           now,
		Items:               make([]models.OrderLineItem, 0, len(lines)),
	}
	if input.IsTryAtHome {
		pending := enums.TryAtHomeStatusPending
		order.TryAtHomeStatus = &pending
	}
	for i, line := range lines {
		item := models.OrderLineItem{
			Position:     i,
			EntityType:   line.EntityType,
			EntityID:     line.EntityID,
			VendorID:     line.VendorID,
			RestaurantID: line.RestaurantID,
			Name:         line.Name,
			PriceCents:   line.PriceCents,
			ImageURL:     line.ImageURL,
			Quantity:     line.Quantity,
			Size:         line.Size,
			Color:        line.Color,
		}
		order.TotalCents += item.LineTotalCents()
		order.Items = append(order.Items, item)
	}
	return order
}

func validatePlaceOrder(input PlaceOrderInput) error {
	if missing := input.DeliveryAddress.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return nil
}

// placeFailure turns a vanished entity into ITEM_UNAVAILABLE for the line that referenced it.
func placeFailure(name string, err error) error {
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return catalog.Unavailable(name, catalog.ReasonNoLongerExists)
	}
	return err
}

func lineRef(line models.CartLineItem) catalog.ItemRef {
	return catalog.ItemRef{
		EntityType: line.EntityType,
		EntityID:   line.EntityID,
		Size:       line.Size,
		Color:      line.Color,
	}
}

func orderLineRef(line models.OrderLineItem) catalog.ItemRef {
	return catalog.ItemRef{
		EntityType: line.EntityType,
		EntityID:   line.EntityID,
		Size:       line.Size,
		Color:      line.Color,
	}
}

func (s *service) GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderView, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order access denied")
	}
	return ToView(order), nil
}

// canView reports whether actor may read order: its owner, an admin, or the assigned agent.
func canView(actor auth.Actor, order *models.Order) bool {
	return actor.IsAdmin() || actor.Owns(order.UserID) || isAssignedAgent(actor, order)
}

func isAssignedAgent(actor auth.Actor, order *models.Order) bool {
	return actor.IsDelivery() && order.DeliveryAgentID != nil && *order.DeliveryAgentID == actor.UserID
}

func (s *service) ListUserOrders(ctx context.Context, actor auth.Actor, filters Filters, params pagination.Params) (*OrderList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID := actor.UserID
	filters.UserID = &userID
	filters.DeliveryAgentID = nil
	return s.list(ctx, filters, params)
}

func (s *service) ListOrders(ctx context.Context, actor auth.Actor, filters Filters, params pagination.Params) (*OrderList, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return s.list(ctx, filters, params)
}

func (s *service) ListAssignedOrders(ctx context.Context, actor auth.Actor, filters Filters, params pagination.Params) (*OrderList, error) {
	if !actor.IsDelivery() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery role required")
	}
	agentID := actor.UserID
	filters.DeliveryAgentID = &agentID
	filters.UserID = nil
	return s.list(ctx, filters, params)
}

func (s *service) list(ctx context.Context, filters Filters, params pagination.Params) (*OrderList, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	page, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, listError(err)
	}
	return toList(page), nil
}

func validateFilters(filters Filters) error {
	if filters.Status != nil && !filters.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateFrom.After(*filters.DateTo) {
		return pkgerrors.New(pkgerrors.CodeValidation, "date_from must not be after date_to")
	}
	return nil
}

func listError(err error) error {
	if errors.Is(err, ErrInvalidCursor) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return loadOrder(ctx, s.repo, orderID)
}

func loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// notify publishes best effort; a failed push never fails the operation.
func (s *service) notify(ctx context.Context, eventType enums.OrderEventType, order *models.Order) {
	if s.notifier == nil {
		return
	}
	event := realtime.OrderEvent{
		Type:            eventType,
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          order.OrderStatus,
		TryAtHomeStatus: order.TryAtHomeStatus,
		OccurredAt:      s.clock(),
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.warn(s.withOrder(ctx, order.ID), "order notification failed", err)
	}
}

func (s *service) withOrder(ctx context.Context, orderID uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, orderID.String())
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
