package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

const orderColumns = `id, user_id, order_number, status, payment_status,
       shipping_city, shipping_area, address_line1, address_line2, contact_phone,
       subtotal, shipping_cost, tax, discount_amount, total,
       voucher_id, notes, tracking_number, created_at, updated_at`

// CreateOrder persists the order header and all of its line items. Must run
// inside ExecTx: a failed item insert has to take the header with it.
func (s *Store) CreateOrder(ctx context.Context, order *entity.Order) error {
	const q = `
		INSERT INTO orders (id, user_id, order_number, status, payment_status,
		                    shipping_city, shipping_area, address_line1, address_line2, contact_phone,
		                    subtotal, shipping_cost, tax, discount_amount, total,
		                    voucher_id, notes, tracking_number, idempotency_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, q,
		order.ID.String(), order.UserID.String(), order.OrderNumber,
		string(order.Status), string(order.PaymentStatus),
		order.ShippingCity, order.ShippingArea, order.AddressLine1, order.AddressLine2, order.ContactPhone,
		order.Subtotal.String(), order.ShippingCost.String(), order.Tax.String(),
		order.DiscountAmount.String(), order.Total.String(),
		nullUUIDToDB(order.VoucherID), order.Notes, order.TrackingNumber,
		order.IdempotencyKey,
		formatTime(order.CreatedAt), formatTime(order.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: create order %q: %w", order.OrderNumber, err)
	}

	for i := range order.Items {
		if err := s.createOrderItem(ctx, &order.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createOrderItem(ctx context.Context, item *entity.OrderItem) error {
	info, err := encodeAttrs(item.VariantInfo)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, sku_code,
		                         quantity, unit_price, subtotal, variant_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.q.ExecContext(ctx, q,
		item.ID.String(), item.OrderID.String(), item.ProductID.String(),
		nullUUIDToDB(item.VariantID), item.ProductName, item.SKUCode,
		item.Quantity, item.UnitPrice.String(), item.Subtotal.String(), info)
	if err != nil {
		return fmt.Errorf("sqlite: create order item for %s: %w", item.OrderID, err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id.String())

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if order.Items, err = s.listOrderItems(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByIdempotencyKey finds the order a previous checkout with the same
// Idempotency-Key created, or ErrOrderNotFound.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*entity.Order, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? AND idempotency_key = ?`,
		userID.String(), key)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if order.Items, err = s.listOrderItems(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

// UpdateOrderStatus persists the mutable slice of an order: status, payment
// status and tracking number. All other columns are frozen at creation.
func (s *Store) UpdateOrderStatus(ctx context.Context, order *entity.Order) error {
	const q = `
		UPDATE orders
		SET    status = ?, payment_status = ?, tracking_number = ?, updated_at = ?
		WHERE  id = ?`

	res, err := s.q.ExecContext(ctx, q,
		string(order.Status), string(order.PaymentStatus), order.TrackingNumber,
		formatTime(time.Now().UTC()), order.ID.String())
	if err != nil {
		return fmt.Errorf("sqlite: update order %s: %w", order.ID, err)
	}
	return requireRow(res, entity.ErrOrderNotFound)
}

func (s *Store) listOrderItems(ctx context.Context, orderID uuid.UUID) ([]entity.OrderItem, error) {
	const q = `
		SELECT id, order_id, product_id, variant_id, product_name, sku_code,
		       quantity, unit_price, subtotal, variant_info
		FROM   order_items
		WHERE  order_id = ?
		ORDER  BY id`

	rows, err := s.q.QueryContext(ctx, q, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list order items for %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var (
			item                                  entity.OrderItem
			rawID, rawOrder, rawProduct           string
			rawVariant, unitPrice, subtotal, info string
		)
		err := rows.Scan(&rawID, &rawOrder, &rawProduct, &rawVariant,
			&item.ProductName, &item.SKUCode, &item.Quantity, &unitPrice, &subtotal, &info)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan order item: %w", err)
		}
		if item.ID, err = parseUUID(rawID); err != nil {
			return nil, err
		}
		if item.OrderID, err = parseUUID(rawOrder); err != nil {
			return nil, err
		}
		if item.ProductID, err = parseUUID(rawProduct); err != nil {
			return nil, err
		}
		if item.VariantID, err = nullUUIDFromDB(rawVariant); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = parseDecimal(unitPrice); err != nil {
			return nil, err
		}
		if item.Subtotal, err = parseDecimal(subtotal); err != nil {
			return nil, err
		}
		if item.VariantInfo, err = decodeAttrs(info); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row scanner) (*entity.Order, error) {
	var (
		order                                     entity.Order
		rawID, rawUser, rawStatus, rawPayment     string
		subtotal, shipping, tax, discount, total  string
		rawVoucher, created, updated              string
	)
	err := row.Scan(&rawID, &rawUser, &order.OrderNumber, &rawStatus, &rawPayment,
		&order.ShippingCity, &order.ShippingArea, &order.AddressLine1, &order.AddressLine2, &order.ContactPhone,
		&subtotal, &shipping, &tax, &discount, &total,
		&rawVoucher, &order.Notes, &order.TrackingNumber, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan order: %w", err)
	}

	if order.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if order.UserID, err = parseUUID(rawUser); err != nil {
		return nil, err
	}
	order.Status = entity.OrderStatus(rawStatus)
	order.PaymentStatus = entity.PaymentStatus(rawPayment)
	if order.Subtotal, err = parseDecimal(subtotal); err != nil {
		return nil, err
	}
	if order.ShippingCost, err = parseDecimal(shipping); err != nil {
		return nil, err
	}
	if order.Tax, err = parseDecimal(tax); err != nil {
		return nil, err
	}
	if order.DiscountAmount, err = parseDecimal(discount); err != nil {
		return nil, err
	}
	if order.Total, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if order.VoucherID, err = nullUUIDFromDB(rawVoucher); err != nil {
		return nil, err
	}
	if order.CreatedAt, err = parseRFC3339(created); err != nil {
		return nil, err
	}
	if order.UpdatedAt, err = parseRFC3339(updated); err != nil {
		return nil, err
	}
	return &order, nil
}
