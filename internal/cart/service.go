package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
	"github.com/angelmondragon/tristore-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the server-side cart aggregate.
type Service interface {
	GetCart(ctx context.Context, actor auth.Actor) (*CartView, error)
	AddToCart(ctx context.Context, actor auth.Actor, input AddItemInput) (*CartView, error)
	UpdateCartItem(ctx context.Context, actor auth.Actor, lineID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, actor auth.Actor, lineID uuid.UUID) (*CartView, error)
	ClearCart(ctx context.Context, actor auth.Actor) (*CartView, error)
	ValidateCart(ctx context.Context, actor auth.Actor) (*ValidationResult, error)
	MergeGuestCart(ctx context.Context, actor auth.Actor, items []AddItemInput) (*MergeResult, error)
}

// ServiceParams groups the cart service dependencies. Cache, Metrics and Logger are optional.
type ServiceParams struct {
	Repo    Repository
	Catalog catalog.Repository
	Tx      txRunner
	Cache   Cache
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type service struct {
	repo     Repository
	resolver *catalog.Resolver
	tx       txRunner
	cache    Cache
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	resolver, err := catalog.NewResolver(params.Catalog)
	if err != nil {
		return nil, err
	}
	return &service{
		repo:     params.Repo,
		resolver: resolver,
		tx:       params.Tx,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// RequireShopper rejects anonymous and blocked actors.
func RequireShopper(actor auth.Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.IsBlocked {
		return pkgerrors.New(pkgerrors.CodeForbidden, "account is blocked")
	}
	return nil
}

func (s *service) GetCart(ctx context.Context, actor auth.Actor) (*CartView, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}
	var (
		version   string
		cacheable bool
	)
	if s.cache != nil {
		view, err := s.cache.Get(ctx, actor.UserID)
		if err == nil {
			if s.logg != nil {
				s.logg.Debug(s.logg.WithUserID(ctx, actor.UserID.String()), "cart cache hit")
			}
			return view, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.warn(ctx, "cart cache read failed", err)
		}
		// taken before the load so a mutation landing in between voids the write
		if version, err = s.cache.Version(ctx, actor.UserID); err != nil {
			s.warn(ctx, "cart cache version read failed", err)
		} else {
			cacheable = true
		}
	}

	cart, err := s.repo.FindByUser(ctx, actor.UserID)
	var view *CartView
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		view = emptyView(actor.UserID)
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	default:
		view = toView(cart)
	}

	if cacheable {
		err := s.cache.Set(ctx, actor.UserID, view, version)
		switch {
		case errors.Is(err, ErrCacheStale):
			if s.logg != nil {
				s.logg.Debug(s.logg.WithUserID(ctx, actor.UserID.String()), "cart changed during load; skipping cache write")
			}
		case err != nil:
			s.warn(ctx, "cart cache write failed", err)
		}
	}
	return view, nil
}

func (s *service) AddToCart(ctx context.Context, actor auth.Actor, input AddItemInput) (*CartView, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}
	if err := validateAddInput(input); err != nil {
		return nil, err
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindOrCreate(ctx, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := addLine(ctx, repo, s.resolver.WithTx(tx), cart.ID, input); err != nil {
			return err
		}
		cart, err = recomputeTotals(ctx, repo, actor.UserID)
		if err != nil {
			return err
		}
		view = toView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor.UserID, "add")
	return view, nil
}

func (s *service) UpdateCartItem(ctx context.Context, actor auth.Actor, lineID uuid.UUID, quantity int) (*CartView, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1; remove the item instead")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := loadCart(ctx, repo, actor.UserID)
		if err != nil {
			return err
		}
		line, err := repo.FindLine(ctx, cart.ID, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if line.EntityType.IsStockTracked() {
			if _, err := s.resolver.WithTx(tx).Resolve(ctx, lineRef(*line), quantity); err != nil {
				return lineFailure(line.Name, err)
			}
		}
		if err := repo.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		cart, err = recomputeTotals(ctx, repo, actor.UserID)
		if err != nil {
			return err
		}
		view = toView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor.UserID, "update")
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, actor auth.Actor, lineID uuid.UUID) (*CartView, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := loadCart(ctx, repo, actor.UserID)
		if err != nil {
			return err
		}
		if err := repo.DeleteLine(ctx, cart.ID, lineID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		cart, err = recomputeTotals(ctx, repo, actor.UserID)
		if err != nil {
			return err
		}
		view = toView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor.UserID, "remove")
	return view, nil
}

func (s *service) ClearCart(ctx context.Context, actor auth.Actor) (*CartView, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, actor.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			view = emptyView(actor.UserID)
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := Clear(ctx, repo, cart.ID); err != nil {
			return err
		}
		cart.Items = nil
		view = toView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor.UserID, "clear")
	return view, nil
}

func (s *service) ValidateCart(ctx context.Context, actor auth.Actor) (*ValidationResult, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}
	result := &ValidationResult{Valid: true, InvalidItems: []InvalidItem{}}

	cart, err := s.repo.FindByUser(ctx, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	demand := cartDemand(cart.Items)
	for _, line := range cart.Items {
		_, err := s.resolver.ResolveWithin(ctx, lineRef(line), line.Quantity, demand)
		if err == nil {
			continue
		}
		reason, ok := RejectionReason(err)
		if !ok {
			return nil, err
		}
		result.InvalidItems = append(result.InvalidItems, InvalidItem{
			LineItemID: line.ID,
			ItemName:   line.Name,
			Reason:     reason,
		})
	}
	result.Valid = len(result.InvalidItems) == 0
	return result, nil
}

func (s *service) MergeGuestCart(ctx context.Context, actor auth.Actor, items []AddItemInput) (*MergeResult, error) {
	if err := RequireShopper(actor); err != nil {
		return nil, err
	}

	result := &MergeResult{Rejected: []RejectedItem{}}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		resolver := s.resolver.WithTx(tx)
		cart, err := repo.FindOrCreate(ctx, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		for _, item := range items {
			err := validateAddInput(item)
			if err == nil {
				err = addLine(ctx, repo, resolver, cart.ID, item)
			}
			if err == nil {
				result.Merged++
				continue
			}
			reason, ok := RejectionReason(err)
			if !ok {
				return err
			}
			result.Rejected = append(result.Rejected, RejectedItem{AddItemInput: item, Reason: reason})
		}

		cart, err = recomputeTotals(ctx, repo, actor.UserID)
		if err != nil {
			return err
		}
		result.Cart = toView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor.UserID, "merge")
	return result, nil
}

// Clear empties the cart lines and zeroes the totals, keeping the cart row.
func Clear(ctx context.Context, repo Repository, cartID uuid.UUID) error {
	if err := repo.ClearLines(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	if err := repo.UpdateTotals(ctx, cartID, 0, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset cart totals")
	}
	return nil
}

// RejectionReason maps a per-item failure to a client-facing reason. It reports
// false for infrastructure errors that must abort the operation.
func RejectionReason(err error) (string, bool) {
	if reason, ok := catalog.UnavailableReason(err); ok {
		return reason, true
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return "", false
	}
	switch typed.Code() {
	case pkgerrors.CodeNotFound:
		return catalog.ReasonNoLongerExists, true
	case pkgerrors.CodeValidation:
		return typed.Message(), true
	default:
		return "", false
	}
}

func addLine(ctx context.Context, repo Repository, resolver *catalog.Resolver, cartID uuid.UUID, input AddItemInput) error {
	ref := input.Ref()
	existing, err := repo.FindLineByIdentity(ctx, cartID, ref)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	quantity := input.Quantity
	if existing != nil {
		quantity += existing.Quantity
	}
	snap, err := resolver.Resolve(ctx, ref, quantity)
	if err != nil {
		return err
	}

	if existing != nil {
		if err := repo.UpdateLineQuantity(ctx, existing.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	}

	line := &models.CartLineItem{
		CartID:       cartID,
		EntityType:   ref.EntityType,
		EntityID:     ref.EntityID,
		Size:         ref.Size,
		Color:        ref.Color,
		VendorID:     snap.VendorID,
		RestaurantID: snap.RestaurantID,
		Name:         snap.Name,
		PriceCents:   snap.PriceCents,
		ImageURL:     snap.ImageURL,
		Quantity:     quantity,
	}
	if err := repo.CreateLine(ctx, line); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart item was added concurrently, retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	return nil
}

func recomputeTotals(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	subtotal := SubtotalCents(cart.Items)
	if err := repo.UpdateTotals(ctx, cart.ID, subtotal, subtotal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart totals")
	}
	cart.SubtotalCents = subtotal
	cart.TotalCents = subtotal
	return cart, nil
}

func loadCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func validateAddInput(input AddItemInput) error {
	if !input.EntityType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid entity type")
	}
	if input.EntityID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "entity id required")
	}
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

func lineRef(line models.CartLineItem) catalog.ItemRef {
	return catalog.ItemRef{
		EntityType: line.EntityType,
		EntityID:   line.EntityID,
		Size:       line.Size,
		Color:      line.Color,
	}
}

// cartDemand totals clothing units per item across the cart's lines.
func cartDemand(lines []models.CartLineItem) catalog.Demand {
	demand := catalog.Demand{}
	for _, line := range lines {
		demand.Add(lineRef(line), line.Quantity)
	}
	return demand
}

// lineFailure names a vanished entity after the line that referenced it.
func lineFailure(name string, err error) error {
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return catalog.Unavailable(name, catalog.ReasonNoLongerExists)
	}
	return err
}

func (s *service) afterMutation(ctx context.Context, userID uuid.UUID, op string) {
	s.metrics.CartMutation(op)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.warn(ctx, "cart cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
