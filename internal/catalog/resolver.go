package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unavailability reasons surfaced to clients.
const (
	ReasonNoLongerExists    = "item no longer exists"
	ReasonNotAvailable      = "item is not available"
	ReasonVariantNotOffered = "selected size/color is not offered"
	ReasonRestaurantClosed  = "restaurant is currently closed"
)

// ItemRef identifies a sellable unit: a catalog entity plus its optional variant selection.
type ItemRef struct {
	EntityType enums.EntityType
	EntityID   uuid.UUID
	Size       string
	Color      string
}

// HasVariant reports whether the ref targets a clothing size/color cell.
func (r ItemRef) HasVariant() bool {
	return r.EntityType == enums.EntityTypeClothes && (r.Size != "" || r.Color != "")
}

// Key is the line identity used to merge duplicate selections.
func (r ItemRef) Key() string {
	return strings.Join([]string{string(r.EntityType), r.EntityID.String(), r.Size, r.Color}, "|")
}

// Less orders refs deterministically so concurrent writers touch rows in the same order.
func (r ItemRef) Less(other ItemRef) bool {
	return r.Key() < other.Key()
}

// Snapshot is the live catalog state captured onto cart and order lines.
type Snapshot struct {
	Ref          ItemRef
	VendorID     uuid.UUID
	RestaurantID *uuid.UUID
	Name         string
	PriceCents   int
	ImageURL     *string
	Stock        *int
}

// Unavailable builds the ITEM_UNAVAILABLE error for a named item.
func Unavailable(itemName, reason string) error {
	return pkgerrors.New(pkgerrors.CodeItemUnavailable, fmt.Sprintf("%s is unavailable: %s", itemName, reason)).
		WithDetails(map[string]any{
			"item_name": itemName,
			"reason":    reason,
		})
}

// UnavailableReason extracts the reason from an ITEM_UNAVAILABLE error.
func UnavailableReason(err error) (string, bool) {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeItemUnavailable {
		return "", false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return typed.Message(), true
	}
	reason, _ := details["reason"].(string)
	return reason, true
}

// Resolver performs the live validation shared by add-to-cart, cart validation and checkout.
type Resolver struct {
	repo Repository
}

// NewResolver wires a resolver over the catalog repository.
func NewResolver(repo Repository) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Resolver{repo: repo}, nil
}

// WithTx binds the resolver to an open transaction.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	return &Resolver{repo: r.repo.WithTx(tx)}
}

// Demand totals the units a cart asks of each clothing item across its size/color lines.
type Demand map[uuid.UUID]int

// Add counts qty units of ref. Non-clothing refs are ignored.
func (d Demand) Add(ref ItemRef, qty int) {
	if ref.EntityType == enums.EntityTypeClothes && qty > 0 {
		d[ref.EntityID] += qty
	}
}

// Resolve loads the live entity and checks that qty units can be sold right now.
// A missing entity yields NOT_FOUND; every other failure yields ITEM_UNAVAILABLE.
func (r *Resolver) Resolve(ctx context.Context, ref ItemRef, qty int) (*Snapshot, error) {
	return r.ResolveWithin(ctx, ref, qty, nil)
}

// ResolveWithin is Resolve for one line of a multi-line cart: a clothing item's
// own stock must also cover the units its sibling lines in demand ask for.
func (r *Resolver) ResolveWithin(ctx context.Context, ref ItemRef, qty int, demand Demand) (*Snapshot, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !ref.EntityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entity type")
	}
	if ref.EntityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entity id required")
	}

	switch ref.EntityType {
	case enums.EntityTypeGrocery:
		return r.resolveGrocery(ctx, ref, qty)
	case enums.EntityTypeClothes:
		siblings := demand[ref.EntityID] - qty
		if siblings < 0 {
			siblings = 0
		}
		return r.resolveClothing(ctx, ref, qty, siblings)
	default:
		return r.resolveMenuItem(ctx, ref)
	}
}

func (r *Resolver) resolveGrocery(ctx context.Context, ref ItemRef, qty int) (*Snapshot, error) {
	if ref.Size != "" || ref.Color != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size and color apply to clothing only")
	}
	product, err := r.repo.FindGrocery(ctx, ref.EntityID)
	if err != nil {
		return nil, loadError(err, "grocery product")
	}
	if !product.IsAvailable {
		return nil, Unavailable(product.Name, ReasonNotAvailable)
	}
	if product.Stock < qty {
		return nil, Unavailable(product.Name, insufficientStock(product.Stock))
	}
	stock := product.Stock
	return &Snapshot{
		Ref:        ref,
		VendorID:   product.VendorID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		ImageURL:   product.ImageURL,
		Stock:      &stock,
	}, nil
}

func (r *Resolver) resolveClothing(ctx context.Context, ref ItemRef, qty, siblings int) (*Snapshot, error) {
	item, err := r.repo.FindClothing(ctx, ref.EntityID)
	if err != nil {
		return nil, loadError(err, "clothing item")
	}
	if !item.IsAvailable {
		return nil, Unavailable(item.Name, ReasonNotAvailable)
	}

	// item stock is shared by every variant line
	stock := item.Stock - siblings
	if stock < 0 {
		stock = 0
	}
	if len(item.Variants) > 0 || ref.HasVariant() {
		variant := findVariant(item.Variants, ref.Size, ref.Color)
		if variant == nil {
			return nil, Unavailable(item.Name, ReasonVariantNotOffered)
		}
		if variant.Stock < stock {
			stock = variant.Stock
		}
	}
	if stock < qty {
		return nil, Unavailable(item.Name, insufficientStock(stock))
	}
	return &Snapshot{
		Ref:        ref,
		VendorID:   item.VendorID,
		Name:       item.Name,
		PriceCents: item.PriceCents,
		ImageURL:   item.ImageURL,
		Stock:      &stock,
	}, nil
}

func (r *Resolver) resolveMenuItem(ctx context.Context, ref ItemRef) (*Snapshot, error) {
	if ref.Size != "" || ref.Color != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size and color apply to clothing only")
	}
	item, err := r.repo.FindMenuItem(ctx, ref.EntityID)
	if err != nil {
		return nil, loadError(err, "menu item")
	}
	restaurant, err := r.repo.FindRestaurant(ctx, item.RestaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unavailable(item.Name, ReasonRestaurantClosed)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	if !restaurant.IsOpen {
		return nil, Unavailable(item.Name, ReasonRestaurantClosed)
	}
	if !item.IsAvailable {
		return nil, Unavailable(item.Name, ReasonNotAvailable)
	}
	restaurantID := restaurant.ID
	return &Snapshot{
		Ref:          ref,
		VendorID:     item.VendorID,
		RestaurantID: &restaurantID,
		Name:         item.Name,
		PriceCents:   item.PriceCents,
		ImageURL:     item.ImageURL,
	}, nil
}

func findVariant(variants []models.ClothingVariant, size, color string) *models.ClothingVariant {
	for i := range variants {
		if variants[i].Size == size && variants[i].Color == color {
			return &variants[i]
		}
	}
	return nil
}

func insufficientStock(available int) string {
	return fmt.Sprintf("only %d left in stock", available)
}

func loadError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
