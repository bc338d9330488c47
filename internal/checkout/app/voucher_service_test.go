package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

func validVoucherInput(t *testing.T) app.VoucherInput {
	t.Helper()
	now := time.Now().UTC()
	return app.VoucherInput{
		Code:          "WELCOME15",
		DiscountType:  entity.DiscountPercentage,
		DiscountValue: d(t, "15"),
		ValidFrom:     now,
		ValidTo:       now.Add(30 * 24 * time.Hour),
	}
}

func TestVoucherService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	vouchers := app.NewVoucherService(f.store)

	created, err := vouchers.Create(ctx, validVoucherInput(t))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME15", created.Code)
	assert.Zero(t, created.TimesUsed)

	list, err := vouchers.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestVoucherService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	vouchers := app.NewVoucherService(f.store)

	fieldOf := func(err error) map[string]string {
		var de *entity.Error
		require.True(t, errors.As(err, &de))
		return de.Fields
	}

	t.Run("missing code and zero value", func(t *testing.T) {
		in := validVoucherInput(t)
		in.Code = ""
		in.DiscountValue = decimal.Zero
		_, err := vouchers.Create(ctx, in)
		require.Error(t, err)
		fields := fieldOf(err)
		assert.Contains(t, fields, "code")
		assert.Contains(t, fields, "discount_value")
	})

	t.Run("max amount on fixed discount", func(t *testing.T) {
		in := validVoucherInput(t)
		in.DiscountType = entity.DiscountFixed
		in.MaxDiscountAmount = d(t, "10")
		_, err := vouchers.Create(ctx, in)
		require.Error(t, err)
		assert.Contains(t, fieldOf(err), "max_discount_amount")
	})

	t.Run("window ends before it starts", func(t *testing.T) {
		in := validVoucherInput(t)
		in.ValidTo = in.ValidFrom.Add(-time.Hour)
		_, err := vouchers.Create(ctx, in)
		require.Error(t, err)
		assert.Contains(t, fieldOf(err), "valid_to")
	})
}

func TestVoucherService_UpdateKeepsUsageCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	vouchers := app.NewVoucherService(f.store)

	created, err := vouchers.Create(ctx, validVoucherInput(t))
	require.NoError(t, err)
	require.NoError(t, f.store.IncrementVoucherUsage(ctx, created.ID))

	in := validVoucherInput(t)
	in.DiscountValue = d(t, "20")
	updated, err := vouchers.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.DiscountValue.Equal(d(t, "20")))

	stored, err := f.store.GetVoucher(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.TimesUsed)
	assert.True(t, stored.DiscountValue.Equal(d(t, "20")))
}

func TestVoucherService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	vouchers := app.NewVoucherService(f.store)

	created, err := vouchers.Create(ctx, validVoucherInput(t))
	require.NoError(t, err)

	require.NoError(t, vouchers.Delete(ctx, created.ID))
	_, err = f.store.GetVoucher(ctx, created.ID)
	assert.ErrorIs(t, err, entity.ErrVoucherNotFound)

	assert.ErrorIs(t, vouchers.Delete(ctx, created.ID), entity.ErrVoucherNotFound)
}

func TestVoucherService_UpdateUnknownVoucher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	vouchers := app.NewVoucherService(f.store)

	_, err := vouchers.Update(ctx, uuid.New(), validVoucherInput(t))
	assert.ErrorIs(t, err, entity.ErrVoucherNotFound)
}
