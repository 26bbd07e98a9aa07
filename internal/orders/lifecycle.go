package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

func (s *service) UpdateOrderStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderView, error) {
	if !actor.IsAdmin() && !actor.IsDelivery() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin or delivery role required")
	}
	if input.Status == nil && input.DeliveryAgentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status or delivery_agent_id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.DeliveryAgentID != nil {
		if !actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins assign delivery agents")
		}
		if *input.DeliveryAgentID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery_agent_id must be a valid id")
		}
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !isAssignedAgent(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this agent")
	}

	if input.Status != nil && *input.Status == enums.OrderStatusCancelled {
		if input.DeliveryAgentID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot assign an agent while cancelling")
		}
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = fmt.Sprintf("cancelled by %s", actor.Role)
		}
		return s.cancel(ctx, order, reason)
	}

	if input.Status == nil {
		return s.assign(ctx, order, *input.DeliveryAgentID)
	}

	from, to := order.OrderStatus, *input.Status
	if !CanTransition(from, to) {
		return nil, invalidTransition(from, to)
	}

	now := s.clock()
	updates := map[string]any{"order_status": to}
	if input.DeliveryAgentID != nil {
		updates["delivery_agent_id"] = *input.DeliveryAgentID
	}
	if to == enums.OrderStatusDelivered {
		updates["actual_delivery_at"] = now
		if order.IsTryAtHome && order.TryAtHomeStatus != nil && *order.TryAtHomeStatus == enums.TryAtHomeStatusPending {
			updates["try_at_home_status"] = enums.TryAtHomeStatusDelivered
		}
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			// lost a race with another writer
			current, err := loadOrder(ctx, repo, order.ID)
			if err != nil {
				return err
			}
			return invalidTransition(current.OrderStatus, to)
		}
		updated, err = loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransition(string(to))
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.withOrder(ctx, updated.ID), map[string]any{
			"from": string(from),
			"to":   string(to),
		})
		s.logg.Info(logCtx, "order status updated")
	}
	s.notify(ctx, enums.OrderEventTypeStatusUpdated, updated)
	return ToView(updated), nil
}

func (s *service) assign(ctx context.Context, order *models.Order, agentID uuid.UUID) (*OrderView, error) {
	if order.OrderStatus.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot assign an agent to a closed order").
			WithDetails(map[string]any{"from": string(order.OrderStatus), "to": string(order.OrderStatus)})
	}
	if err := s.repo.AssignDeliveryAgent(ctx, order.ID, agentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign delivery agent")
	}
	order.DeliveryAgentID = &agentID
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(s.withOrder(ctx, order.ID), "delivery_agent_id", agentID.String()), "delivery agent assigned")
	}
	return ToView(order), nil
}

func (s *service) CancelOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID, reason string) (*OrderView, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(order.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner or an admin may cancel")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	return s.cancel(ctx, order, reason)
}

// cancel flips the order to cancelled and then restocks each line independently.
// Only the caller that wins the status flip restocks.
func (s *service) cancel(ctx context.Context, order *models.Order, reason string) (*OrderView, error) {
	from := order.OrderStatus
	if !CanTransition(from, enums.OrderStatusCancelled) {
		return nil, invalidTransition(from, enums.OrderStatusCancelled)
	}

	now := s.clock()
	ok, err := s.repo.TransitionStatus(ctx, order.ID, from, map[string]any{
		"order_status":        enums.OrderStatusCancelled,
		"cancellation_reason": reason,
		"cancelled_at":        now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !ok {
		current, err := s.load(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		return nil, invalidTransition(current.OrderStatus, enums.OrderStatusCancelled)
	}

	// returns may have committed after order was read
	var failed []string
	var restoreErr error
	if fresh, err := s.repo.FindByID(ctx, order.ID); err != nil {
		restoreErr = err
		for _, line := range order.Items {
			failed = append(failed, line.ID.String())
		}
	} else {
		order = fresh
		failed, restoreErr = s.restoreStock(ctx, order.Items)
	}
	order.OrderStatus = enums.OrderStatusCancelled
	order.CancellationReason = &reason
	order.CancelledAt = &now

	s.metrics.OrderCancelled()
	s.metrics.StatusTransition(string(enums.OrderStatusCancelled))
	logCtx := s.withOrder(ctx, order.ID)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(logCtx, "from", string(from)), "order cancelled")
	}
	s.notify(ctx, enums.OrderEventTypeStatusUpdated, order)

	if restoreErr != nil {
		s.metrics.StockRestoreFailed(len(failed))
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(logCtx, "failed_line_items", failed), "stock restore failed", restoreErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, restoreErr, "order cancelled but stock restore failed").
			WithDetails(map[string]any{
				"order_id":          order.ID.String(),
				"failed_line_items": failed,
			})
	}
	return ToView(order), nil
}

// restoreStock returns every outstanding unit to the catalog, one atomic update per line.
func (s *service) restoreStock(ctx context.Context, lines []models.OrderLineItem) ([]string, error) {
	var (
		combined error
		failed   []string
	)
	for _, line := range lines {
		qty := line.Quantity - line.ReturnedQuantity
		if !line.EntityType.IsStockTracked() || qty <= 0 {
			continue
		}
		if err := s.catalog.RestoreStock(ctx, orderLineRef(line), qty); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("line %s: %w", line.ID, err))
			failed = append(failed, line.ID.String())
		}
	}
	return failed, combined
}

func (s *service) UpdateTryAtHomeStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input TryAtHomeInput) (*OrderView, error) {
	if !actor.IsAdmin() && !actor.IsDelivery() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin or delivery role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid try-at-home status")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !isAssignedAgent(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this agent")
	}
	if !order.IsTryAtHome {
		return nil, pkgerrors.New(pkgerrors.CodeNotTryAtHome, "order is not a try-at-home order")
	}
	if order.OrderStatus == enums.OrderStatusCancelled {
		return nil, invalidTransition(order.OrderStatus, input.Status)
	}

	from := enums.TryAtHomeStatusPending
	if order.TryAtHomeStatus != nil {
		from = *order.TryAtHomeStatus
	}
	if !CanTransitionTryAtHome(from, input.Status) {
		return nil, invalidTransition(from, input.Status)
	}

	returns, err := planReturns(order, input)
	if err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		ok, err := repo.TransitionTryAtHome(ctx, order.ID, from, input.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update try-at-home status")
		}
		if !ok {
			current, err := loadOrder(ctx, repo, order.ID)
			if err != nil {
				return err
			}
			if current.OrderStatus == enums.OrderStatusCancelled {
				return invalidTransition(current.OrderStatus, input.Status)
			}
			if current.TryAtHomeStatus != nil {
				from = *current.TryAtHomeStatus
			}
			return invalidTransition(from, input.Status)
		}
		for _, ret := range returns {
			marked, err := repo.MarkLineReturned(ctx, ret.line.ID, ret.quantity, ret.reason)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark line returned")
			}
			if !marked {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("item %s was already returned", ret.line.ID))
			}
			if err := catalogRepo.RestoreStock(ctx, orderLineRef(ret.line), ret.quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore returned stock")
			}
		}
		updated, err = loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(s.withOrder(ctx, order.ID), map[string]any{
			"from":           string(from),
			"to":             string(input.Status),
			"returned_lines": len(returns),
		})
		s.logg.Info(logCtx, "try-at-home status updated")
	}
	s.notify(ctx, enums.OrderEventTypeStatusUpdated, updated)
	return ToView(updated), nil
}

type plannedReturn struct {
	line     models.OrderLineItem
	quantity int
	reason   *string
}

// planReturns validates the returned items against the order before anything is written.
func planReturns(order *models.Order, input TryAtHomeInput) ([]plannedReturn, error) {
	if !input.Status.IsReturn() {
		if len(input.ReturnedItems) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("returned_items not allowed for %s", input.Status))
		}
		return nil, nil
	}

	if len(input.ReturnedItems) == 0 {
		if input.Status == enums.TryAtHomeStatusPartiallyReturned {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "returned_items required for a partial return")
		}
		// a full return sends back every outstanding unit
		var all []plannedReturn
		for _, line := range order.Items {
			if line.IsReturned || line.EntityType != enums.EntityTypeClothes {
				continue
			}
			all = append(all, plannedReturn{line: line, quantity: line.Quantity})
		}
		return all, nil
	}

	lines := make(map[uuid.UUID]models.OrderLineItem, len(order.Items))
	for _, line := range order.Items {
		lines[line.ID] = line
	}
	seen := make(map[uuid.UUID]struct{}, len(input.ReturnedItems))
	planned := make([]plannedReturn, 0, len(input.ReturnedItems))
	for _, item := range input.ReturnedItems {
		line, ok := lines[item.ItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s is not part of this order", item.ItemID))
		}
		if _, dup := seen[item.ItemID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s listed twice", item.ItemID))
		}
		seen[item.ItemID] = struct{}{}
		if line.EntityType != enums.EntityTypeClothes {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not a clothing item", line.Name))
		}
		if line.IsReturned {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s was already returned", line.Name))
		}
		if item.Quantity < 1 || item.Quantity > line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("return quantity for %s must be between 1 and %d", line.Name, line.Quantity))
		}
		planned = append(planned, plannedReturn{line: line, quantity: item.Quantity, reason: item.Reason})
	}
	return planned, nil
}
