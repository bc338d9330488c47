package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *sqlite.Store) uuid.UUID {
	t.Helper()
	u := &entity.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u.ID
}

func seedProduct(t *testing.T, store *sqlite.Store, stock int64) uuid.UUID {
	t.Helper()
	p := &entity.Product{
		ID:            uuid.New(),
		Name:          "widget",
		BasePrice:     decimal.RequireFromString("9.99"),
		StockQuantity: stock,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p.ID
}

func TestStore_GetOrCreateCartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	userID := seedUser(t, store)

	first, err := store.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	second, err := store.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestStore_UpsertCartItemReplacesOnConflict(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	userID := seedUser(t, store)
	productID := seedProduct(t, store, 100)

	cart, err := store.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)

	first := &entity.CartItem{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 2}
	require.NoError(t, store.UpsertCartItem(ctx, first))
	second := &entity.CartItem{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 7}
	require.NoError(t, store.UpsertCartItem(ctx, second))

	items, err := store.ListCartItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 7, items[0].Quantity)
	// The original row survives the conflict; only the quantity changes.
	assert.Equal(t, first.ID, items[0].ID)
}

func TestStore_AdjustStockGuardsAgainstNegative(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	productID := seedProduct(t, store, 3)

	require.NoError(t, store.AdjustStock(ctx, productID, uuid.NullUUID{}, -3))
	err := store.AdjustStock(ctx, productID, uuid.NullUUID{}, -1)
	require.Error(t, err)
	assert.Equal(t, entity.KindBusinessRule, entity.KindOf(err))

	p, err := store.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Zero(t, p.StockQuantity)

	require.NoError(t, store.AdjustStock(ctx, productID, uuid.NullUUID{}, 5))
	p, err = store.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, p.StockQuantity)
}

func TestStore_IncrementVoucherUsageHonorsLimit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	now := time.Now().UTC()
	v := &entity.Voucher{
		ID:            uuid.New(),
		Code:          "CAP2",
		DiscountType:  entity.DiscountFixed,
		DiscountValue: decimal.RequireFromString("1"),
		ValidFrom:     now,
		ValidTo:       now.Add(time.Hour),
		UsageLimit:    2,
		CreatedAt:     now,
	}
	require.NoError(t, store.CreateVoucher(ctx, v))

	require.NoError(t, store.IncrementVoucherUsage(ctx, v.ID))
	require.NoError(t, store.IncrementVoucherUsage(ctx, v.ID))
	err := store.IncrementVoucherUsage(ctx, v.ID)
	assert.ErrorIs(t, err, entity.ErrVoucherInvalid)

	stored, err := store.GetVoucher(ctx, v.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.TimesUsed)
}

func TestStore_OutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.InsertOutboxEvent(ctx, uuid.NewString(), "orders.created", "k1", []byte(`{"a":1}`)))
	require.NoError(t, store.InsertOutboxEvent(ctx, uuid.NewString(), "orders.created", "k2", []byte(`{"a":2}`)))

	pending, err := store.FetchPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "k1", pending[0].Key)

	require.NoError(t, store.MarkOutboxEventSent(ctx, pending[0].ID))
	pending, err = store.FetchPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "k2", pending[0].Key)
}

func TestStore_TokenLookup(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	userID := seedUser(t, store)
	require.NoError(t, store.CreateToken(ctx, "secret-token", userID))

	got, err := store.GetUserIDByToken(ctx, "secret-token")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = store.GetUserIDByToken(ctx, "wrong")
	assert.ErrorIs(t, err, entity.ErrUnauthenticated)
}

func TestStore_CapabilitiesFollowRoles(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	userID := seedUser(t, store)

	require.NoError(t, store.GrantCapability(ctx, "admin", entity.CapVoucherCreate))
	require.NoError(t, store.GrantCapability(ctx, "admin", entity.CapOrderManage))

	caps, err := store.ListCapabilities(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, caps)

	require.NoError(t, store.AssignRole(ctx, userID, "admin"))
	caps, err = store.ListCapabilities(ctx, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []entity.Capability{entity.CapVoucherCreate, entity.CapOrderManage}, caps)
}

func TestStore_ExecTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	productID := seedProduct(t, store, 10)

	boom := errors.New("abort")
	err := store.ExecTx(ctx, func(tx ports.Repository) error {
		if err := tx.AdjustStock(ctx, productID, uuid.NullUUID{}, -4); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := store.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, p.StockQuantity)
}

func TestStore_OrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	userID := seedUser(t, store)
	productID := seedProduct(t, store, 10)

	now := time.Now().UTC()
	order := &entity.Order{
		ID:             uuid.New(),
		UserID:         userID,
		OrderNumber:    entity.NewOrderNumber(now, userID),
		Status:         entity.OrderPending,
		PaymentStatus:  entity.PaymentPending,
		ShippingCity:   "Dhaka",
		AddressLine1:   "12 Main Road",
		Subtotal:       decimal.RequireFromString("19.98"),
		ShippingCost:   decimal.RequireFromString("2.00"),
		Tax:            decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.RequireFromString("21.98"),
		IdempotencyKey: "key-1",
		CreatedAt:      now,
		UpdatedAt:      now,
		Items: []entity.OrderItem{{
			ID:          uuid.New(),
			ProductID:   productID,
			ProductName: "widget",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("9.99"),
			Subtotal:    decimal.RequireFromString("19.98"),
			VariantInfo: map[string]string{"Color": "Red"},
		}},
	}
	order.Items[0].OrderID = order.ID
	require.NoError(t, store.CreateOrder(ctx, order))

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.True(t, got.Total.Equal(order.Total))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Red", got.Items[0].VariantInfo["Color"])

	byKey, err := store.GetOrderByIdempotencyKey(ctx, userID, "key-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byKey.ID)

	_, err = store.GetOrderByIdempotencyKey(ctx, userID, "other-key")
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}
