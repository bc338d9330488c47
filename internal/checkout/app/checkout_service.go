package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// OrderCreatedTopic is the outbox topic for freshly created orders.
const OrderCreatedTopic = "orders.created"

// CheckoutInput carries the caller's choices for one checkout run.
type CheckoutInput struct {
	// AddressID selects an explicit shipping address; when unset the user's
	// default address is used.
	AddressID uuid.NullUUID
	// VoucherCode applies at most one voucher to the order.
	VoucherCode string
	Notes       string
	// IdempotencyKey, when non-empty, makes a replayed checkout return the
	// order the first run created instead of creating a second one.
	IdempotencyKey string
}

// CheckoutService converts a cart into an immutable, priced order in a
// single all-or-nothing transaction: price snapshot, stock decrement,
// voucher accounting, order persistence, cart clearing and the integration
// event either all commit or none do.
type CheckoutService struct {
	repo  ports.Repository
	locks *UserLocks

	shippingCost decimal.Decimal
	tax          decimal.Decimal

	// now is injectable so voucher windows can be pinned in tests.
	now func() time.Time
}

func NewCheckoutService(repo ports.Repository, locks *UserLocks, shippingCost, tax decimal.Decimal) *CheckoutService {
	return &CheckoutService{
		repo:         repo,
		locks:        locks,
		shippingCost: shippingCost,
		tax:          tax,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// orderCreatedEvent is the payload published for each new order.
type orderCreatedEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	Total       string `json:"total"`
	CreatedAt   string `json:"created_at"`
}

// Checkout runs the whole conversion. Every read and write happens inside
// one write transaction, so a stock shortfall discovered on the last cart
// line rolls back everything: no order header, no items, no voucher usage,
// and the cart keeps all of its lines.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*entity.Order, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var (
		order    *entity.Order
		replayed bool
	)
	err := s.repo.ExecTx(ctx, func(tx ports.Repository) error {
		// Replay detection first: a retried request must not re-run the
		// pipeline it already completed.
		if in.IdempotencyKey != "" {
			existing, err := tx.GetOrderByIdempotencyKey(ctx, userID, in.IdempotencyKey)
			if err == nil {
				order = existing
				replayed = true
				return nil
			}
			if entity.KindOf(err) != entity.KindNotFound {
				return err
			}
		}

		cart, err := tx.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		items, err := tx.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return entity.ErrEmptyCart
		}

		address, err := s.resolveAddress(ctx, tx, userID, in.AddressID)
		if err != nil {
			return err
		}

		now := s.now()
		created, err := s.buildOrder(ctx, tx, userID, address, items, now)
		if err != nil {
			return err
		}
		created.Notes = in.Notes
		created.IdempotencyKey = in.IdempotencyKey

		if in.VoucherCode != "" {
			voucher, err := tx.GetVoucherByCode(ctx, in.VoucherCode)
			if err != nil {
				return err
			}
			if !voucher.IsValid(now) {
				return entity.ErrVoucherInvalid
			}
			created.DiscountAmount = voucher.Discount(created.Subtotal)
			created.VoucherID = uuid.NullUUID{UUID: voucher.ID, Valid: true}
		}

		created.Total = created.Subtotal.
			Add(created.ShippingCost).
			Add(created.Tax).
			Sub(created.DiscountAmount)
		if created.Total.IsNegative() {
			return entity.ErrNegativeTotal
		}

		if err := tx.CreateOrder(ctx, created); err != nil {
			return err
		}
		if created.VoucherID.Valid {
			if err := tx.IncrementVoucherUsage(ctx, created.VoucherID.UUID); err != nil {
				return err
			}
		}
		if err := tx.ClearCart(ctx, cart.ID); err != nil {
			return err
		}
		if err := s.publishOrderCreated(ctx, tx, created); err != nil {
			return err
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		slog.InfoContext(ctx, "order replayed",
			"order_number", order.OrderNumber, "user_id", userID, "idempotency_key", in.IdempotencyKey)
	} else {
		slog.InfoContext(ctx, "order created",
			"order_number", order.OrderNumber, "user_id", userID, "total", order.Total)
	}
	return order, nil
}

// resolveAddress picks the explicit address (which must belong to the user)
// or falls back to the user's default.
func (s *CheckoutService) resolveAddress(ctx context.Context, tx ports.Repository, userID uuid.UUID, addressID uuid.NullUUID) (*entity.Address, error) {
	if addressID.Valid {
		return tx.GetAddress(ctx, userID, addressID.UUID)
	}
	address, err := tx.GetDefaultAddress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, entity.ErrNoAddress
	}
	return address, nil
}

// buildOrder re-resolves prices and re-validates stock for every cart line
// at checkout time — a price change between add-to-cart and checkout is
// honored — then decrements stock and assembles the frozen order.
func (s *CheckoutService) buildOrder(ctx context.Context, tx ports.Repository, userID uuid.UUID, address *entity.Address, items []entity.CartItem, now time.Time) (*entity.Order, error) {
	orderID := uuid.New()
	subtotal := decimal.Zero
	orderItems := make([]entity.OrderItem, 0, len(items))

	for _, item := range items {
		product, variant, err := loadCatalogFrom(ctx, tx, item.ProductID, item.VariantID)
		if err != nil {
			return nil, err
		}
		if err := entity.CheckStock(product, variant, item.Quantity); err != nil {
			return nil, err
		}
		if err := tx.AdjustStock(ctx, item.ProductID, item.VariantID, -item.Quantity); err != nil {
			return nil, err
		}

		unitPrice := entity.ResolvePrice(product, variant)
		lineSubtotal := unitPrice.Mul(decimal.NewFromInt(item.Quantity))
		subtotal = subtotal.Add(lineSubtotal)

		skuCode := ""
		var variantInfo map[string]string
		if variant != nil {
			skuCode = variant.SKUCode
			variantInfo = variant.Attributes
		}
		orderItems = append(orderItems, entity.OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: product.Name,
			SKUCode:     skuCode,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    lineSubtotal,
			VariantInfo: variantInfo,
		})
	}

	return &entity.Order{
		ID:             orderID,
		UserID:         userID,
		OrderNumber:    entity.NewOrderNumber(now, userID),
		Status:         entity.OrderPending,
		PaymentStatus:  entity.PaymentPending,
		ShippingCity:   address.City,
		ShippingArea:   address.Area,
		AddressLine1:   address.AddressLine1,
		AddressLine2:   address.AddressLine2,
		ContactPhone:   address.PhoneNumber,
		Subtotal:       subtotal,
		ShippingCost:   s.shippingCost,
		Tax:            s.tax,
		DiscountAmount: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          orderItems,
	}, nil
}

func (s *CheckoutService) publishOrderCreated(ctx context.Context, tx ports.Repository, order *entity.Order) error {
	payload, err := json.Marshal(orderCreatedEvent{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		Total:       order.Total.String(),
		CreatedAt:   order.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return tx.InsertOutboxEvent(ctx, uuid.NewString(), OrderCreatedTopic, order.ID.String(), payload)
}
