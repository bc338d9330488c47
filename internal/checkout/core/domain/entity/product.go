package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. When HasVariants is true the product itself
// carries no sellable stock; price and stock live on its variants.
type Product struct {
	ID            uuid.UUID
	Name          string
	BasePrice     decimal.Decimal
	DiscountPrice decimal.Decimal // zero when no discount is active
	StockQuantity int64
	HasVariants   bool
	CreatedAt     time.Time
}

// Variant is a specific purchasable configuration (SKU) of a product, e.g.
// Color=Red/Size=M. Attributes maps attribute name to value; the set must be
// unique per product.
type Variant struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	SKUCode       string
	Price         decimal.Decimal // zero means "inherit the product price"
	DiscountPrice decimal.Decimal
	StockQuantity int64
	Attributes    map[string]string
}

// EffectivePrice returns the authoritative unit price for the product alone:
// the discount price when one is set and undercuts the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.BasePrice) {
		return p.DiscountPrice
	}
	return p.BasePrice
}

// ResolvePrice returns the authoritative unit price for a product and an
// optional variant. Variant discount price wins over variant price; a variant
// with no price of its own inherits the product's list price, not its
// discount. The result is a pure function of its inputs.
func ResolvePrice(p *Product, v *Variant) decimal.Decimal {
	if v == nil {
		return p.EffectivePrice()
	}
	if v.DiscountPrice.IsPositive() {
		return v.DiscountPrice
	}
	if v.Price.IsPositive() {
		return v.Price
	}
	return p.BasePrice
}

// CheckStock confirms the requested quantity can be satisfied from the
// variant's stock when a variant is given, otherwise from the product's.
// A variant product with no variant selected fails before any stock is read.
func CheckStock(p *Product, v *Variant, quantity int64) error {
	if p.HasVariants && v == nil {
		return NewVariantRequired()
	}
	available := p.StockQuantity
	if v != nil {
		available = v.StockQuantity
	}
	if quantity > available {
		return NewInsufficientStock(available)
	}
	return nil
}
