package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEffectivePrice(t *testing.T) {
	t.Run("discount undercuts base", func(t *testing.T) {
		p := &Product{BasePrice: d("100"), DiscountPrice: d("80")}
		assert.True(t, p.EffectivePrice().Equal(d("80")))
	})

	t.Run("no discount set", func(t *testing.T) {
		p := &Product{BasePrice: d("100")}
		assert.True(t, p.EffectivePrice().Equal(d("100")))
	})

	t.Run("discount above base is ignored", func(t *testing.T) {
		p := &Product{BasePrice: d("100"), DiscountPrice: d("120")}
		assert.True(t, p.EffectivePrice().Equal(d("100")))
	})
}

func TestResolvePrice(t *testing.T) {
	product := &Product{BasePrice: d("50"), DiscountPrice: d("45")}

	t.Run("no variant falls back to product", func(t *testing.T) {
		assert.True(t, ResolvePrice(product, nil).Equal(d("45")))
	})

	t.Run("variant discount wins", func(t *testing.T) {
		v := &Variant{Price: d("60"), DiscountPrice: d("55")}
		assert.True(t, ResolvePrice(product, v).Equal(d("55")))
	})

	t.Run("variant price without discount", func(t *testing.T) {
		v := &Variant{Price: d("60")}
		assert.True(t, ResolvePrice(product, v).Equal(d("60")))
	})

	t.Run("unpriced variant inherits list price not discount", func(t *testing.T) {
		v := &Variant{}
		assert.True(t, ResolvePrice(product, v).Equal(d("50")))
	})
}

func TestCheckStock(t *testing.T) {
	t.Run("simple product with enough stock", func(t *testing.T) {
		p := &Product{StockQuantity: 5}
		assert.NoError(t, CheckStock(p, nil, 5))
	})

	t.Run("simple product short on stock", func(t *testing.T) {
		p := &Product{StockQuantity: 2}
		err := CheckStock(p, nil, 3)
		require.Error(t, err)
		assert.Equal(t, KindBusinessRule, KindOf(err))
	})

	t.Run("variant product requires a variant", func(t *testing.T) {
		p := &Product{HasVariants: true, StockQuantity: 100}
		err := CheckStock(p, nil, 1)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("variant stock is authoritative", func(t *testing.T) {
		p := &Product{HasVariants: true, StockQuantity: 0}
		v := &Variant{StockQuantity: 3}
		assert.NoError(t, CheckStock(p, v, 3))
		assert.Error(t, CheckStock(p, v, 4))
	})
}

func TestBuildCartView(t *testing.T) {
	product := &Product{ID: uuid.New(), Name: "mug", BasePrice: d("10")}
	itemA := PriceCartItem(CartItem{ProductID: product.ID, Quantity: 2}, product, nil)
	itemB := PriceCartItem(CartItem{ProductID: product.ID, Quantity: 1}, product, nil)

	view := BuildCartView(Cart{}, []PricedCartItem{itemA, itemB})
	assert.True(t, view.TotalAmount.Equal(d("30")))
	assert.EqualValues(t, 3, view.TotalItems)
}
