package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/sqlite"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

// fixture is a real store on a throwaway database with one user who has a
// default shipping address.
type fixture struct {
	store  *sqlite.Store
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	user := &entity.User{
		ID:        uuid.New(),
		Email:     "shopper@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateAddress(ctx, &entity.Address{
		ID:           uuid.New(),
		UserID:       user.ID,
		City:         "Dhaka",
		AddressLine1: "12 Main Road",
		PhoneNumber:  "+8801000000000",
		IsDefault:    true,
	}))

	return &fixture{store: store, userID: user.ID}
}

func (f *fixture) seedProduct(t *testing.T, name, price string, stock int64) uuid.UUID {
	t.Helper()
	p := &entity.Product{
		ID:            uuid.New(),
		Name:          name,
		BasePrice:     d(t, price),
		StockQuantity: stock,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p.ID
}

func (f *fixture) seedVariantProduct(t *testing.T, name, basePrice string) uuid.UUID {
	t.Helper()
	p := &entity.Product{
		ID:          uuid.New(),
		Name:        name,
		BasePrice:   d(t, basePrice),
		HasVariants: true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p.ID
}

func (f *fixture) seedVariant(t *testing.T, productID uuid.UUID, sku, price string, stock int64, attrs map[string]string) uuid.UUID {
	t.Helper()
	v := &entity.Variant{
		ID:            uuid.New(),
		ProductID:     productID,
		SKUCode:       sku,
		Price:         d(t, price),
		StockQuantity: stock,
		Attributes:    attrs,
	}
	require.NoError(t, f.store.CreateVariant(context.Background(), v))
	return v.ID
}

func (f *fixture) seedVoucher(t *testing.T, v entity.Voucher) uuid.UUID {
	t.Helper()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, f.store.CreateVoucher(context.Background(), &v))
	return v.ID
}

func (f *fixture) productStock(t *testing.T, productID uuid.UUID) int64 {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func nullID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}
