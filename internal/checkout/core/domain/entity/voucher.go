package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a voucher's discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Voucher is a discount code with a validity window and an optional usage
// cap. TimesUsed is incremented exactly once per successful checkout that
// references the voucher, never decremented.
type Voucher struct {
	ID            uuid.UUID
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	// MaxDiscountAmount caps percentage discounts. Zero means uncapped.
	MaxDiscountAmount decimal.Decimal
	ValidFrom         time.Time
	ValidTo           time.Time
	// UsageLimit of zero means unlimited.
	UsageLimit int64
	TimesUsed  int64
	CreatedAt  time.Time
}

// IsValid reports whether the voucher can be applied at the given instant:
// inside its window and, when capped, not yet exhausted.
func (v *Voucher) IsValid(now time.Time) bool {
	if now.Before(v.ValidFrom) || now.After(v.ValidTo) {
		return false
	}
	if v.UsageLimit > 0 && v.TimesUsed >= v.UsageLimit {
		return false
	}
	return true
}

// Discount computes the discount amount for a subtotal. Percentage discounts
// are clamped to MaxDiscountAmount when set; fixed discounts are clamped to
// the subtotal so a misconfigured voucher can never push a total negative.
// Pure computation: usage accounting belongs to the checkout transaction.
func (v *Voucher) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if v.DiscountType == DiscountPercentage {
		discount := subtotal.Mul(v.DiscountValue).Div(decimal.NewFromInt(100))
		if v.MaxDiscountAmount.IsPositive() && discount.GreaterThan(v.MaxDiscountAmount) {
			discount = v.MaxDiscountAmount
		}
		return discount
	}
	if v.DiscountValue.GreaterThan(subtotal) {
		return subtotal
	}
	return v.DiscountValue
}
