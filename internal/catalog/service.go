package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes vendor catalog management and public entity reads.
type Service interface {
	CreateGrocery(ctx context.Context, actor auth.Actor, input GroceryInput) (*EntityView, error)
	UpdateGrocery(ctx context.Context, actor auth.Actor, id uuid.UUID, input GroceryInput) (*EntityView, error)
	DeleteGrocery(ctx context.Context, actor auth.Actor, id uuid.UUID) error

	CreateClothing(ctx context.Context, actor auth.Actor, input ClothingInput) (*EntityView, error)
	UpdateClothing(ctx context.Context, actor auth.Actor, id uuid.UUID, input ClothingInput) (*EntityView, error)
	DeleteClothing(ctx context.Context, actor auth.Actor, id uuid.UUID) error

	CreateRestaurant(ctx context.Context, actor auth.Actor, input RestaurantInput) (*RestaurantView, error)
	SetRestaurantOpen(ctx context.Context, actor auth.Actor, id uuid.UUID, open bool) (*RestaurantView, error)

	CreateMenuItem(ctx context.Context, actor auth.Actor, input MenuItemInput) (*EntityView, error)
	UpdateMenuItem(ctx context.Context, actor auth.Actor, id uuid.UUID, input MenuItemInput) (*EntityView, error)
	DeleteMenuItem(ctx context.Context, actor auth.Actor, id uuid.UUID) error

	GetEntity(ctx context.Context, entityType enums.EntityType, id uuid.UUID) (*EntityView, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) (*VendorCatalog, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the catalog service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func requireVendor(actor auth.Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsVerifiedVendor() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "verified vendor required")
	}
	return nil
}

func requireOwner(actor auth.Actor, vendorID uuid.UUID) error {
	if actor.UserID != vendorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "entity does not belong to vendor")
	}
	return nil
}

func (s *service) CreateGrocery(ctx context.Context, actor auth.Actor, input GroceryInput) (*EntityView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	if err := validateListing(input.Name, input.PriceCents, input.Stock); err != nil {
		return nil, err
	}
	product := &models.GroceryProduct{
		VendorID:    actor.UserID,
		Name:        input.Name,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		Unit:        input.Unit,
		Stock:       input.Stock,
		IsAvailable: input.IsAvailable,
	}
	if err := s.repo.CreateGrocery(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create grocery product")
	}
	view := groceryView(*product)
	return &view, nil
}

func (s *service) UpdateGrocery(ctx context.Context, actor auth.Actor, id uuid.UUID, input GroceryInput) (*EntityView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	if err := validateListing(input.Name, input.PriceCents, input.Stock); err != nil {
		return nil, err
	}
	product, err := s.repo.FindGrocery(ctx, id)
	if err != nil {
		return nil, loadError(err, "grocery product")
	}
	if err := requireOwner(actor, product.VendorID); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":         input.Name,
		"price_cents":  input.PriceCents,
		"image_url":    input.ImageURL,
		"unit":         input.Unit,
		"stock":        input.Stock,
		"is_available": input.IsAvailable,
	}
	if err := s.repo.UpdateGrocery(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update grocery product")
	}
	product, err = s.repo.FindGrocery(ctx, id)
	if err != nil {
		return nil, loadError(err, "grocery product")
	}
	view := groceryView(*product)
	return &view, nil
}

func (s *service) DeleteGrocery(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireVendor(actor); err != nil {
		return err
	}
	product, err := s.repo.FindGrocery(ctx, id)
	if err != nil {
		return loadError(err, "grocery product")
	}
	if err := requireOwner(actor, product.VendorID); err != nil {
		return err
	}
	if err := s.repo.DeleteGrocery(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete grocery product")
	}
	return nil
}

func (s *service) CreateClothing(ctx context.Context, actor auth.Actor, input ClothingInput) (*EntityView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	variants, total, err := buildVariants(input.Variants)
	if err != nil {
		return nil, err
	}
	stock := input.Stock
	if len(variants) > 0 {
		stock = total
	}
	if err := validateListing(input.Name, input.PriceCents, stock); err != nil {
		return nil, err
	}
	item := &models.ClothingItem{
		VendorID:    actor.UserID,
		Name:        input.Name,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		Stock:       stock,
		IsAvailable: input.IsAvailable,
		Variants:    variants,
	}
	if err := s.repo.CreateClothing(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create clothing item")
	}
	view := clothingView(*item)
	return &view, nil
}

func (s *service) UpdateClothing(ctx context.Context, actor auth.Actor, id uuid.UUID, input ClothingInput) (*EntityView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	variants, total, err := buildVariants(input.Variants)
	if err != nil {
		return nil, err
	}
	stock := input.Stock
	if len(variants) > 0 {
		stock = total
	}
	if err := validateListing(input.Name, input.PriceCents, stock); err != nil {
		return nil, err
	}

	var updated *models.ClothingItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindClothing(ctx, id)
		if err != nil {
			return loadError(err, "clothing item")
		}
		if err := requireOwner(actor, item.VendorID); err != nil {
			return err
		}
		updates := map[string]any{
			"name":         input.Name,
			"price_cents":  input.PriceCents,
			"image_url":    input.ImageURL,
			"stock":        stock,
			"is_available": input.IsAvailable,
		}
		if err := repo.UpdateClothing(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update clothing item")
		}
		if err := repo.ReplaceVariants(ctx, id, variants); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace clothing variants")
		}
		updated, err = repo.FindClothing(ctx, id)
		if err != nil {
			return loadError(err, "clothing item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := clothingView(*updated)
	return &view, nil
}

func (s *service) DeleteClothing(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireVendor(actor); err != nil {
		return err
	}
	item, err := s.repo.FindClothing(ctx, id)
	if err != nil {
		return loadError(err, "clothing item")
	}
	if err := requireOwner(actor, item.VendorID); err != nil {
		return err
	}
	if err := s.repo.DeleteClothing(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete clothing item")
	}
	return nil
}

func (s *service) CreateRestaurant(ctx context.Context, actor auth.Actor, input RestaurantInput) (*RestaurantView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	if err := validateListing(input.Name, 0, 0); err != nil {
		return nil, err
	}
	restaurant := &models.Restaurant{
		VendorID: actor.UserID,
		Name:     input.Name,
		IsOpen:   input.IsOpen,
	}
	if err := s.repo.CreateRestaurant(ctx, restaurant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create restaurant")
	}
	view := restaurantView(*restaurant)
	return &view, nil
}

func (s *service) SetRestaurantOpen(ctx context.Context, actor auth.Actor, id uuid.UUID, open bool) (*RestaurantView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	restaurant, err := s.repo.FindRestaurant(ctx, id)
	if err != nil {
		return nil, loadError(err, "restaurant")
	}
	if err := requireOwner(actor, restaurant.VendorID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRestaurant(ctx, id, map[string]any{"is_open": open}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update restaurant")
	}
	restaurant.IsOpen = open
	view := restaurantView(*restaurant)
	return &view, nil
}

func (s *service) CreateMenuItem(ctx context.Context, actor auth.Actor, input MenuItemInput) (*EntityView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	if err := validateListing(input.Name, input.PriceCents, 0); err != nil {
		return nil, err
	}
	restaurant, err := s.repo.FindRestaurant(ctx, input.RestaurantID)
	if err != nil {
		return nil, loadError(err, "restaurant")
	}
	if err := requireOwner(actor, restaurant.VendorID); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		RestaurantID: restaurant.ID,
		VendorID:     actor.UserID,
		Name:         input.Name,
		PriceCents:   input.PriceCents,
		ImageURL:     input.ImageURL,
		IsAvailable:  input.IsAvailable,
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	view := menuItemView(*item)
	return &view, nil
}

func (s *service) UpdateMenuItem(ctx context.Context, actor auth.Actor, id uuid.UUID, input MenuItemInput) (*EntityView, error) {
	if err := requireVendor(actor); err != nil {
		return nil, err
	}
	if err := validateListing(input.Name, input.PriceCents, 0); err != nil {
		return nil, err
	}
	item, err := s.repo.FindMenuItem(ctx, id)
	if err != nil {
		return nil, loadError(err, "menu item")
	}
	if err := requireOwner(actor, item.VendorID); err != nil {
		return nil, err
	}
	if input.RestaurantID != uuid.Nil && input.RestaurantID != item.RestaurantID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu items cannot move between restaurants")
	}
	updates := map[string]any{
		"name":         input.Name,
		"price_cents":  input.PriceCents,
		"image_url":    input.ImageURL,
		"is_available": input.IsAvailable,
	}
	if err := s.repo.UpdateMenuItem(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	item.Name = input.Name
	item.PriceCents = input.PriceCents
	item.ImageURL = input.ImageURL
	item.IsAvailable = input.IsAvailable
	view := menuItemView(*item)
	return &view, nil
}

func (s *service) DeleteMenuItem(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireVendor(actor); err != nil {
		return err
	}
	item, err := s.repo.FindMenuItem(ctx, id)
	if err != nil {
		return loadError(err, "menu item")
	}
	if err := requireOwner(actor, item.VendorID); err != nil {
		return err
	}
	if err := s.repo.DeleteMenuItem(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}
	return nil
}

func (s *service) GetEntity(ctx context.Context, entityType enums.EntityType, id uuid.UUID) (*EntityView, error) {
	var view EntityView
	switch entityType {
	case enums.EntityTypeGrocery:
		product, err := s.repo.FindGrocery(ctx, id)
		if err != nil {
			return nil, loadError(err, "grocery product")
		}
		view = groceryView(*product)
	case enums.EntityTypeClothes:
		item, err := s.repo.FindClothing(ctx, id)
		if err != nil {
			return nil, loadError(err, "clothing item")
		}
		view = clothingView(*item)
	case enums.EntityTypeFood:
		item, err := s.repo.FindMenuItem(ctx, id)
		if err != nil {
			return nil, loadError(err, "menu item")
		}
		view = menuItemView(*item)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entity type")
	}
	return &view, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID) (*VendorCatalog, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	groceries, err := s.repo.ListGroceriesByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list grocery products")
	}
	clothing, err := s.repo.ListClothingByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clothing items")
	}
	restaurants, err := s.repo.ListRestaurantsByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurants")
	}
	menu, err := s.repo.ListMenuItemsByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}

	out := &VendorCatalog{
		Groceries:   make([]EntityView, 0, len(groceries)),
		Clothing:    make([]EntityView, 0, len(clothing)),
		Restaurants: make([]RestaurantView, 0, len(restaurants)),
		MenuItems:   make([]EntityView, 0, len(menu)),
	}
	for _, r := range restaurants {
		out.Restaurants = append(out.Restaurants, restaurantView(r))
	}
	for _, p := range groceries {
		out.Groceries = append(out.Groceries, groceryView(p))
	}
	for _, c := range clothing {
		out.Clothing = append(out.Clothing, clothingView(c))
	}
	for _, m := range menu {
		out.MenuItems = append(out.MenuItems, menuItemView(m))
	}
	return out, nil
}
