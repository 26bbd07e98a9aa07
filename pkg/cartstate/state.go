package cartstate

import (
	"strings"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the subtotal on every recompute.
var TaxRate = decimal.RequireFromString("0.10")

// Item is one client-side cart line.
type Item struct {
	EntityType enums.EntityType `json:"entity_type"`
	EntityID   uuid.UUID        `json:"entity_id"`
	Name       string           `json:"name"`
	PriceCents int              `json:"price_cents"`
	ImageURL   *string          `json:"image_url,omitempty"`
	Quantity   int              `json:"quantity"`
	Size       string           `json:"size,omitempty"`
	Color      string           `json:"color,omitempty"`
}

// Key is the line identity: entity plus size/color selection.
func (i Item) Key() string {
	return strings.Join([]string{string(i.EntityType), i.EntityID.String(), i.Size, i.Color}, "|")
}

type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

// Coupon is a client-applied discount. Percent values are whole percentages;
// fixed values are cents.
type Coupon struct {
	Code  string          `json:"code"`
	Kind  CouponKind      `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// State is the whole client cart. Totals are derived and overwritten by Reduce.
type State struct {
	Items         []Item  `json:"items"`
	SavedForLater []Item  `json:"saved_for_later"`
	Coupon        *Coupon `json:"coupon,omitempty"`
	SubtotalCents int     `json:"subtotal_cents"`
	TaxCents      int     `json:"tax_cents"`
	ShippingCents int     `json:"shipping_cents"`
	DiscountCents int     `json:"discount_cents"`
	TotalCents    int     `json:"total_cents"`
}

// Action is a cart mutation understood by Reduce.
type Action interface {
	apply(State) State
}

// Reduce applies action to a copy of state and recomputes the totals. The input is never mutated.
func Reduce(state State, action Action) State {
	next := state.clone()
	if action != nil {
		next = action.apply(next)
	}
	return next.withTotals()
}

// AddItem inserts a line or increases the quantity of a line with the same key.
type AddItem struct{ Item Item }

func (a AddItem) apply(s State) State {
	if a.Item.Quantity < 1 {
		return s
	}
	if idx := indexOf(s.Items, a.Item.Key()); idx >= 0 {
		s.Items[idx].Quantity += a.Item.Quantity
		return s
	}
	s.Items = append(s.Items, a.Item)
	return s
}

// UpdateQuantity sets the quantity of a line. Values below one are ignored; use RemoveItem.
type UpdateQuantity struct {
	Key      string
	Quantity int
}

func (a UpdateQuantity) apply(s State) State {
	if a.Quantity < 1 {
		return s
	}
	if idx := indexOf(s.Items, a.Key); idx >= 0 {
		s.Items[idx].Quantity = a.Quantity
	}
	return s
}

type RemoveItem struct{ Key string }

func (a RemoveItem) apply(s State) State {
	s.Items = without(s.Items, a.Key)
	return s
}

// ClearCart drops the lines and the coupon; saved-for-later items stay.
type ClearCart struct{}

func (ClearCart) apply(s State) State {
	s.Items = []Item{}
	s.Coupon = nil
	return s
}

type ApplyCoupon struct{ Coupon Coupon }

func (a ApplyCoupon) apply(s State) State {
	coupon := a.Coupon
	s.Coupon = &coupon
	return s
}

type RemoveCoupon struct{}

func (RemoveCoupon) apply(s State) State {
	s.Coupon = nil
	return s
}

// SetShipping records the externally quoted shipping fee.
type SetShipping struct{ Cents int }

func (a SetShipping) apply(s State) State {
	if a.Cents < 0 {
		a.Cents = 0
	}
	s.ShippingCents = a.Cents
	return s
}

type SaveForLater struct{ Key string }

func (a SaveForLater) apply(s State) State {
	idx := indexOf(s.Items, a.Key)
	if idx < 0 {
		return s
	}
	item := s.Items[idx]
	s.Items = without(s.Items, a.Key)
	if indexOf(s.SavedForLater, a.Key) < 0 {
		s.SavedForLater = append(s.SavedForLater, item)
	}
	return s
}

type MoveToCart struct{ Key string }

func (a MoveToCart) apply(s State) State {
	idx := indexOf(s.SavedForLater, a.Key)
	if idx < 0 {
		return s
	}
	item := s.SavedForLater[idx]
	s.SavedForLater = without(s.SavedForLater, a.Key)
	return AddItem{Item: item}.apply(s)
}

// ReplaceItems hydrates the lines from the server cart.
type ReplaceItems struct{ Items []Item }

func (a ReplaceItems) apply(s State) State {
	s.Items = append([]Item{}, a.Items...)
	return s
}

func (s State) clone() State {
	out := s
	out.Items = append([]Item{}, s.Items...)
	out.SavedForLater = append([]Item{}, s.SavedForLater...)
	if s.Coupon != nil {
		coupon := *s.Coupon
		out.Coupon = &coupon
	}
	return out
}

func (s State) withTotals() State {
	subtotal := decimal.Zero
	for _, item := range s.Items {
		subtotal = subtotal.Add(decimal.NewFromInt(int64(item.PriceCents)).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	tax := subtotal.Mul(TaxRate).Round(0)
	shipping := decimal.NewFromInt(int64(s.ShippingCents))
	discount := couponDiscount(s.Coupon, subtotal)

	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	s.SubtotalCents = int(subtotal.IntPart())
	s.TaxCents = int(tax.IntPart())
	s.DiscountCents = int(discount.IntPart())
	s.TotalCents = int(total.IntPart())
	return s
}

// couponDiscount is never negative. It is not capped; the total clamps at zero instead.
func couponDiscount(coupon *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || !coupon.Value.IsPositive() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch coupon.Kind {
	case CouponPercent:
		discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(0)
	case CouponFixed:
		discount = coupon.Value.Round(0)
	default:
		return decimal.Zero
	}
	return discount
}

func indexOf(items []Item, key string) int {
	for i, item := range items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func without(items []Item, key string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Key() != key {
			out = append(out, item)
		}
	}
	return out
}
