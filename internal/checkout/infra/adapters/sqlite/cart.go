package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

// GetOrCreateCart returns the user's cart, creating it lazily on first
// access. The UNIQUE(user_id) constraint guarantees at most one cart per
// user even under a racing first request.
func (s *Store) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	now := time.Now().UTC()
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		uuid.NewString(), userID.String(), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("sqlite: create cart for user %s: %w", userID, err)
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?`,
		userID.String())

	var (
		cart                            entity.Cart
		rawID, rawUser, created, updated string
	)
	if err := row.Scan(&rawID, &rawUser, &created, &updated); err != nil {
		return nil, fmt.Errorf("sqlite: get cart for user %s: %w", userID, err)
	}
	if cart.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if cart.UserID, err = parseUUID(rawUser); err != nil {
		return nil, err
	}
	if cart.CreatedAt, err = parseRFC3339(created); err != nil {
		return nil, err
	}
	if cart.UpdatedAt, err = parseRFC3339(updated); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]entity.CartItem, error) {
	const q = `
		SELECT id, cart_id, product_id, variant_id, quantity, created_at, updated_at
		FROM   cart_items
		WHERE  cart_id = ?
		ORDER  BY created_at, id`

	rows, err := s.q.QueryContext(ctx, q, cartID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list cart items for %s: %w", cartID, err)
	}
	defer rows.Close()

	var items []entity.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Store) GetCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*entity.CartItem, error) {
	const q = `
		SELECT id, cart_id, product_id, variant_id, quantity, created_at, updated_at
		FROM   cart_items
		WHERE  cart_id = ? AND id = ?`

	rows, err := s.q.QueryContext(ctx, q, cartID.String(), itemID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: get cart item %s: %w", itemID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sqlite: get cart item %s: %w", itemID, err)
		}
		return nil, entity.ErrCartItemNotFound
	}
	return scanCartItem(rows)
}

// UpsertCartItem inserts a new line or replaces the quantity of an existing
// (cart, product, variant) line. Replacement is last-write-wins, not
// additive.
func (s *Store) UpsertCartItem(ctx context.Context, item *entity.CartItem) error {
	now := formatTime(time.Now().UTC())
	const q = `
		INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cart_id, product_id, variant_id)
		DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`

	_, err := s.q.ExecContext(ctx, q,
		item.ID.String(), item.CartID.String(), item.ProductID.String(),
		nullUUIDToDB(item.VariantID), item.Quantity, now, now)
	if err != nil {
		return fmt.Errorf("sqlite: upsert cart item: %w", err)
	}
	return nil
}

func (s *Store) UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ?, updated_at = ? WHERE cart_id = ? AND id = ?`,
		quantity, formatTime(time.Now().UTC()), cartID.String(), itemID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update cart item %s: %w", itemID, err)
	}
	return requireRow(res, entity.ErrCartItemNotFound)
}

func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ? AND id = ?`,
		cartID.String(), itemID.String())
	if err != nil {
		return fmt.Errorf("sqlite: delete cart item %s: %w", itemID, err)
	}
	return requireRow(res, entity.ErrCartItemNotFound)
}

// ClearCart deletes every line but keeps the cart row itself.
func (s *Store) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ?`, cartID.String()); err != nil {
		return fmt.Errorf("sqlite: clear cart %s: %w", cartID, err)
	}
	return nil
}

func scanCartItem(rows *sql.Rows) (*entity.CartItem, error) {
	var (
		item                             entity.CartItem
		rawID, rawCart, rawProduct       string
		rawVariant, created, updated     string
	)
	err := rows.Scan(&rawID, &rawCart, &rawProduct, &rawVariant, &item.Quantity, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan cart item: %w", err)
	}
	if item.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if item.CartID, err = parseUUID(rawCart); err != nil {
		return nil, err
	}
	if item.ProductID, err = parseUUID(rawProduct); err != nil {
		return nil, err
	}
	if item.VariantID, err = nullUUIDFromDB(rawVariant); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseRFC3339(created); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseRFC3339(updated); err != nil {
		return nil, err
	}
	return &item, nil
}

// requireRow converts a zero-row update/delete into notFound.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
