package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

const voucherColumns = `id, code, discount_type, discount_value, max_discount_amount,
       valid_from, valid_to, usage_limit, times_used, created_at`

func (s *Store) GetVoucherByCode(ctx context.Context, code string) (*entity.Voucher, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = ?`, code)
	return scanVoucher(row)
}

func (s *Store) GetVoucher(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = ?`, id.String())
	return scanVoucher(row)
}

func (s *Store) CreateVoucher(ctx context.Context, v *entity.Voucher) error {
	const q = `
		INSERT INTO vouchers (id, code, discount_type, discount_value, max_discount_amount,
		                      valid_from, valid_to, usage_limit, times_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, q,
		v.ID.String(), v.Code, string(v.DiscountType), v.DiscountValue.String(),
		v.MaxDiscountAmount.String(), formatTime(v.ValidFrom), formatTime(v.ValidTo),
		v.UsageLimit, v.TimesUsed, formatTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: create voucher %q: %w", v.Code, err)
	}
	return nil
}

// UpdateVoucher rewrites the voucher's configurable fields. times_used is
// deliberately excluded: the usage counter moves only through
// IncrementVoucherUsage.
func (s *Store) UpdateVoucher(ctx context.Context, v *entity.Voucher) error {
	const q = `
		UPDATE vouchers
		SET    code = ?, discount_type = ?, discount_value = ?, max_discount_amount = ?,
		       valid_from = ?, valid_to = ?, usage_limit = ?
		WHERE  id = ?`

	res, err := s.q.ExecContext(ctx, q,
		v.Code, string(v.DiscountType), v.DiscountValue.String(), v.MaxDiscountAmount.String(),
		formatTime(v.ValidFrom), formatTime(v.ValidTo), v.UsageLimit, v.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update voucher %s: %w", v.ID, err)
	}
	return requireRow(res, entity.ErrVoucherNotFound)
}

// DeleteVoucher removes the voucher outright. Existing orders keep their
// frozen discount_amount; only future checkouts are affected.
func (s *Store) DeleteVoucher(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM vouchers WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("sqlite: delete voucher %s: %w", id, err)
	}
	return requireRow(res, entity.ErrVoucherNotFound)
}

func (s *Store) ListVouchers(ctx context.Context) ([]entity.Voucher, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list vouchers: %w", err)
	}
	defer rows.Close()

	var out []entity.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// IncrementVoucherUsage bumps times_used by exactly one, refusing to push
// the counter past the usage limit. Runs inside the checkout transaction.
func (s *Store) IncrementVoucherUsage(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE vouchers
		SET    times_used = times_used + 1
		WHERE  id = ? AND (usage_limit = 0 OR times_used < usage_limit)`

	res, err := s.q.ExecContext(ctx, q, id.String())
	if err != nil {
		return fmt.Errorf("sqlite: increment voucher usage %s: %w", id, err)
	}
	return requireRow(res, entity.ErrVoucherInvalid)
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row scanner) (*entity.Voucher, error) {
	var (
		v                           entity.Voucher
		rawID, rawType              string
		value, maxAmount            string
		validFrom, validTo, created string
	)
	err := row.Scan(&rawID, &v.Code, &rawType, &value, &maxAmount,
		&validFrom, &validTo, &v.UsageLimit, &v.TimesUsed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan voucher: %w", err)
	}

	if v.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	v.DiscountType = entity.DiscountType(rawType)
	if v.DiscountValue, err = parseDecimal(value); err != nil {
		return nil, err
	}
	if v.MaxDiscountAmount, err = parseDecimal(maxAmount); err != nil {
		return nil, err
	}
	if v.ValidFrom, err = parseRFC3339(validFrom); err != nil {
		return nil, err
	}
	if v.ValidTo, err = parseRFC3339(validTo); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = parseRFC3339(created); err != nil {
		return nil, err
	}
	return &v, nil
}
