package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// VoucherInput is the admin payload for creating or updating a voucher.
type VoucherInput struct {
	Code              string
	DiscountType      entity.DiscountType
	DiscountValue     decimal.Decimal
	MaxDiscountAmount decimal.Decimal
	ValidFrom         time.Time
	ValidTo           time.Time
	UsageLimit        int64
}

// VoucherService is the admin surface for vouchers. Usage accounting is
// out of its hands: times_used moves only through checkout.
type VoucherService struct {
	repo ports.Repository
}

func NewVoucherService(repo ports.Repository) *VoucherService {
	return &VoucherService{repo: repo}
}

func (s *VoucherService) Create(ctx context.Context, in VoucherInput) (*entity.Voucher, error) {
	if err := validateVoucherInput(in); err != nil {
		return nil, err
	}
	voucher := &entity.Voucher{
		ID:                uuid.New(),
		Code:              in.Code,
		DiscountType:      in.DiscountType,
		DiscountValue:     in.DiscountValue,
		MaxDiscountAmount: in.MaxDiscountAmount,
		ValidFrom:         in.ValidFrom,
		ValidTo:           in.ValidTo,
		UsageLimit:        in.UsageLimit,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.CreateVoucher(ctx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *VoucherService) Update(ctx context.Context, id uuid.UUID, in VoucherInput) (*entity.Voucher, error) {
	if err := validateVoucherInput(in); err != nil {
		return nil, err
	}

	var updated *entity.Voucher
	err := s.repo.ExecTx(ctx, func(tx ports.Repository) error {
		voucher, err := tx.GetVoucher(ctx, id)
		if err != nil {
			return err
		}
		voucher.Code = in.Code
		voucher.DiscountType = in.DiscountType
		voucher.DiscountValue = in.DiscountValue
		voucher.MaxDiscountAmount = in.MaxDiscountAmount
		voucher.ValidFrom = in.ValidFrom
		voucher.ValidTo = in.ValidTo
		voucher.UsageLimit = in.UsageLimit
		if err := tx.UpdateVoucher(ctx, voucher); err != nil {
			return err
		}
		updated = voucher
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a voucher. Orders that already consumed it keep their
// frozen discount amounts.
func (s *VoucherService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteVoucher(ctx, id)
}

func (s *VoucherService) List(ctx context.Context) ([]entity.Voucher, error) {
	return s.repo.ListVouchers(ctx)
}

func validateVoucherInput(in VoucherInput) error {
	fields := map[string]string{}
	if in.Code == "" {
		fields["code"] = "code is required"
	}
	if !in.DiscountType.Valid() {
		fields["discount_type"] = "must be PERCENTAGE or FIXED"
	}
	if !in.DiscountValue.IsPositive() {
		fields["discount_value"] = "must be greater than zero"
	}
	if in.MaxDiscountAmount.IsPositive() && in.DiscountType != entity.DiscountPercentage {
		fields["max_discount_amount"] = "only applies to percentage discounts"
	}
	if !in.ValidTo.After(in.ValidFrom) {
		fields["valid_to"] = "must be after valid_from"
	}
	if in.UsageLimit < 0 {
		fields["usage_limit"] = "must not be negative"
	}
	if len(fields) > 0 {
		return entity.NewFieldValidation("invalid_voucher", fields)
	}
	return nil
}
