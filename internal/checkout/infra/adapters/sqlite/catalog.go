package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	const q = `
		SELECT id, name, base_price, discount_price, stock_quantity, has_variants, created_at
		FROM   products
		WHERE  id = ?`

	row := s.q.QueryRowContext(ctx, q, id.String())

	var (
		p                     entity.Product
		rawID, base, discount string
		hasVariants           int64
		createdAt             string
	)
	err := row.Scan(&rawID, &p.Name, &base, &discount, &p.StockQuantity, &hasVariants, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get product %s: %w", id, err)
	}

	if p.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if p.BasePrice, err = parseDecimal(base); err != nil {
		return nil, err
	}
	if p.DiscountPrice, err = parseDecimal(discount); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	p.HasVariants = hasVariants != 0
	return &p, nil
}

func (s *Store) GetVariant(ctx context.Context, id uuid.UUID) (*entity.Variant, error) {
	const q = `
		SELECT id, product_id, sku_code, price, discount_price, stock_quantity, attributes
		FROM   variants
		WHERE  id = ?`

	row := s.q.QueryRowContext(ctx, q, id.String())

	var (
		v                         entity.Variant
		rawID, rawProduct         string
		price, discount, rawAttrs string
	)
	err := row.Scan(&rawID, &rawProduct, &v.SKUCode, &price, &discount, &v.StockQuantity, &rawAttrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get variant %s: %w", id, err)
	}

	if v.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if v.ProductID, err = parseUUID(rawProduct); err != nil {
		return nil, err
	}
	if v.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	if v.DiscountPrice, err = parseDecimal(discount); err != nil {
		return nil, err
	}
	if v.Attributes, err = decodeAttrs(rawAttrs); err != nil {
		return nil, err
	}
	return &v, nil
}

// AdjustStock applies a stock delta to the variant when one is given,
// otherwise to the product. The guard clause keeps stock from going
// negative even if a caller skipped the stock check.
func (s *Store) AdjustStock(ctx context.Context, productID uuid.UUID, variantID uuid.NullUUID, delta int64) error {
	var (
		res sql.Result
		err error
	)
	if variantID.Valid {
		res, err = s.q.ExecContext(ctx,
			`UPDATE variants SET stock_quantity = stock_quantity + ?
			 WHERE id = ? AND stock_quantity + ? >= 0`,
			delta, variantID.UUID.String(), delta)
	} else {
		res, err = s.q.ExecContext(ctx,
			`UPDATE products SET stock_quantity = stock_quantity + ?
			 WHERE id = ? AND stock_quantity + ? >= 0`,
			delta, productID.String(), delta)
	}
	if err != nil {
		return fmt.Errorf("sqlite: adjust stock for product %s: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: adjust stock rows affected: %w", err)
	}
	if n == 0 {
		return entity.NewInsufficientStock(0)
	}
	return nil
}

// CreateProduct inserts a catalog row. Catalog management is outside the
// engine's API surface; this exists for seeding and tests.
func (s *Store) CreateProduct(ctx context.Context, p *entity.Product) error {
	const q = `
		INSERT INTO products (id, name, base_price, discount_price, stock_quantity, has_variants, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, q,
		p.ID.String(), p.Name, p.BasePrice.String(), p.DiscountPrice.String(),
		p.StockQuantity, boolToInt(p.HasVariants), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: create product %q: %w", p.Name, err)
	}
	return nil
}

// CreateVariant inserts a variant row. The value-set uniqueness index
// rejects a second variant of the same product with an identical attribute
// map.
func (s *Store) CreateVariant(ctx context.Context, v *entity.Variant) error {
	attrs, err := encodeAttrs(v.Attributes)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO variants (id, product_id, sku_code, price, discount_price, stock_quantity, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.q.ExecContext(ctx, q,
		v.ID.String(), v.ProductID.String(), v.SKUCode,
		v.Price.String(), v.DiscountPrice.String(), v.StockQuantity, attrs)
	if err != nil {
		return fmt.Errorf("sqlite: create variant %q: %w", v.SKUCode, err)
	}
	return nil
}
