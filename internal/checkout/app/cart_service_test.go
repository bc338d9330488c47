package app_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

func newCartService(f *fixture) *app.CartService {
	return app.NewCartService(f.store, app.NewUserLocks())
}

func TestCartService_GetCartCreatesLazily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carts := newCartService(f)

	view, err := carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalAmount.IsZero())

	again, err := carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, view.Cart.ID, again.Cart.ID)
}

func TestCartService_AddItemReplacesQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carts := newCartService(f)
	productID := f.seedProduct(t, "mug", "10.00", 100)

	_, err := carts.AddItem(ctx, f.userID, productID, uuid.NullUUID{}, 2)
	require.NoError(t, err)
	view, err := carts.AddItem(ctx, f.userID, productID, uuid.NullUUID{}, 5)
	require.NoError(t, err)

	// Last write wins: one line, quantity 5, not 7.
	require.Len(t, view.Items, 1)
	assert.EqualValues(t, 5, view.Items[0].Item.Quantity)
	assert.True(t, view.TotalAmount.Equal(d(t, "50")))
}

func TestCartService_AddItemValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carts := newCartService(f)

	t.Run("quantity below one", func(t *testing.T) {
		productID := f.seedProduct(t, "mug", "10.00", 100)
		_, err := carts.AddItem(ctx, f.userID, productID, uuid.NullUUID{}, 0)
		require.Error(t, err)
		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := carts.AddItem(ctx, f.userID, uuid.New(), uuid.NullUUID{}, 1)
		assert.ErrorIs(t, err, entity.ErrProductNotFound)
	})

	t.Run("variant product without variant", func(t *testing.T) {
		productID := f.seedVariantProduct(t, "tee", "25.00")
		_, err := carts.AddItem(ctx, f.userID, productID, uuid.NullUUID{}, 1)
		require.Error(t, err)
		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	})

	t.Run("variant of a different product", func(t *testing.T) {
		teeID := f.seedVariantProduct(t, "tee-2", "25.00")
		variantID := f.seedVariant(t, teeID, "TEE2-BLUE-S", "25.00", 5,
			map[string]string{"Color": "Blue", "Size": "S"})
		otherID := f.seedProduct(t, "mug-2", "10.00", 100)

		_, err := carts.AddItem(ctx, f.userID, otherID, nullID(variantID), 1)
		require.Error(t, err)
		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	})

	t.Run("stock is not checked at add time", func(t *testing.T) {
		productID := f.seedProduct(t, "rare", "10.00", 1)
		view, err := carts.AddItem(ctx, f.userID, productID, uuid.NullUUID{}, 50)
		require.NoError(t, err)
		assert.NotEmpty(t, view.Items)
	})
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carts := newCartService(f)
	productA := f.seedProduct(t, "a", "10.00", 100)
	productB := f.seedProduct(t, "b", "20.00", 100)

	viewA, err := carts.AddItem(ctx, f.userID, productA, uuid.NullUUID{}, 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, f.userID, productB, uuid.NullUUID{}, 1)
	require.NoError(t, err)
	itemA := viewA.Items[0].Item.ID

	view, err := carts.UpdateItemQuantity(ctx, f.userID, itemA, 3)
	require.NoError(t, err)
	assert.True(t, view.TotalAmount.Equal(d(t, "50")))

	// updating to the current quantity is a no-op, not an error
	view, err = carts.UpdateItemQuantity(ctx, f.userID, itemA, 3)
	require.NoError(t, err)
	assert.True(t, view.TotalAmount.Equal(d(t, "50")))

	_, err = carts.UpdateItemQuantity(ctx, f.userID, itemA, 0)
	require.Error(t, err)
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))

	_, err = carts.UpdateItemQuantity(ctx, f.userID, uuid.New(), 2)
	assert.ErrorIs(t, err, entity.ErrCartItemNotFound)

	require.NoError(t, carts.RemoveItem(ctx, f.userID, itemA))
	view, err = carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	require.NoError(t, carts.Clear(ctx, f.userID))
	view, err = carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
