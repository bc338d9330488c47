package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

// placeOrder runs a real checkout so the order under test carries genuine
// stock movements.
func placeOrder(t *testing.T, f *fixture, productID uuid.UUID, qty int64) *entity.Order {
	t.Helper()
	ctx := context.Background()
	checkout, carts := newCheckoutService(f, decimal.Zero, decimal.Zero)
	_, err := carts.AddItem(ctx, f.userID, productID, uuid.NullUUID{}, qty)
	require.NoError(t, err)
	order, err := checkout.Checkout(ctx, f.userID, app.CheckoutInput{})
	require.NoError(t, err)
	return order
}

func TestOrderService_GetOrderOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orders := app.NewOrderService(f.store)
	productID := f.seedProduct(t, "mug", "10.00", 10)
	order := placeOrder(t, f, productID, 1)

	got, err := orders.GetOrder(ctx, f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	// Another principal sees not-found, not forbidden.
	stranger := &entity.User{ID: uuid.New(), Email: "x@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.CreateUser(ctx, stranger))
	_, err = orders.GetOrder(ctx, stranger.ID, order.ID)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestOrderService_CancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orders := app.NewOrderService(f.store)
	productID := f.seedProduct(t, "mug", "10.00", 10)
	order := placeOrder(t, f, productID, 3)
	require.EqualValues(t, 7, f.productStock(t, productID))

	cancelled, err := orders.Cancel(ctx, f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, cancelled.Status)
	assert.EqualValues(t, 10, f.productStock(t, productID))

	// A second cancel finds a CANCELLED order and refuses; stock stays put.
	_, err = orders.Cancel(ctx, f.userID, order.ID)
	require.Error(t, err)
	assert.Equal(t, entity.KindBusinessRule, entity.KindOf(err))
	assert.EqualValues(t, 10, f.productStock(t, productID))
}

func TestOrderService_CancelOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orders := app.NewOrderService(f.store)
	productID := f.seedProduct(t, "mug", "10.00", 10)
	order := placeOrder(t, f, productID, 2)

	_, err := orders.UpdateStatus(ctx, order.ID, entity.OrderProcessing, "")
	require.NoError(t, err)

	_, err = orders.Cancel(ctx, f.userID, order.ID)
	require.Error(t, err)
	assert.Equal(t, entity.KindBusinessRule, entity.KindOf(err))
	assert.EqualValues(t, 8, f.productStock(t, productID))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orders := app.NewOrderService(f.store)
	productID := f.seedProduct(t, "mug", "10.00", 10)
	order := placeOrder(t, f, productID, 1)

	t.Run("walks the state machine", func(t *testing.T) {
		updated, err := orders.UpdateStatus(ctx, order.ID, entity.OrderProcessing, "")
		require.NoError(t, err)
		assert.Equal(t, entity.OrderProcessing, updated.Status)

		updated, err = orders.UpdateStatus(ctx, order.ID, entity.OrderShipped, "TRK-42")
		require.NoError(t, err)
		assert.Equal(t, "TRK-42", updated.TrackingNumber)
	})

	t.Run("rejects skipped states", func(t *testing.T) {
		_, err := orders.UpdateStatus(ctx, order.ID, entity.OrderRefunded, "")
		require.Error(t, err)
		assert.Equal(t, entity.KindBusinessRule, entity.KindOf(err))
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := orders.UpdateStatus(ctx, order.ID, entity.OrderStatus("TELEPORTED"), "")
		require.Error(t, err)
		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orders := app.NewOrderService(f.store)
	productID := f.seedProduct(t, "mug", "10.00", 10)
	placeOrder(t, f, productID, 1)
	placeOrder(t, f, productID, 2)

	list, err := orders.ListOrders(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
