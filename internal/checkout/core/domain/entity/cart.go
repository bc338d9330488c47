package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a user's mutable selection of items prior to purchase. It is
// created lazily on first access and emptied, not deleted, by a successful
// checkout.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one line of a cart. At most one line exists per
// (cart, product, variant); re-adding the same pair replaces the quantity.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	VariantID uuid.NullUUID
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PricedCartItem is a cart line joined with its catalog data and priced at
// read time. Cart prices are live: they track the catalog until checkout
// freezes them into an order.
type PricedCartItem struct {
	Item      CartItem
	Product   *Product
	Variant   *Variant // nil for non-variant products
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// CartView is the cart representation returned to clients.
type CartView struct {
	Cart        Cart
	Items       []PricedCartItem
	TotalAmount decimal.Decimal
	TotalItems  int64
}

// PriceCartItem resolves the live unit price for a cart line.
func PriceCartItem(item CartItem, p *Product, v *Variant) PricedCartItem {
	unit := ResolvePrice(p, v)
	return PricedCartItem{
		Item:      item,
		Product:   p,
		Variant:   v,
		UnitPrice: unit,
		Subtotal:  unit.Mul(decimal.NewFromInt(item.Quantity)),
	}
}

// BuildCartView sums priced lines into the totals the client sees.
func BuildCartView(cart Cart, items []PricedCartItem) CartView {
	view := CartView{Cart: cart, Items: items, TotalAmount: decimal.Zero}
	for _, it := range items {
		view.TotalAmount = view.TotalAmount.Add(it.Subtotal)
		view.TotalItems += it.Item.Quantity
	}
	return view
}
