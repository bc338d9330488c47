package entity

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order fulfilment state.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

// PaymentStatus tracks payment separately from fulfilment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// orderTransitions is the order lifecycle state machine. DELIVERED,
// CANCELLED and REFUNDED are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderRefunded},
	OrderShipped:    {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is the immutable, priced record created from a cart at checkout.
// All monetary fields are snapshots computed at creation time and never
// recomputed from live catalog prices. Orders are never deleted, only
// status-transitioned.
type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	OrderNumber   string
	Status        OrderStatus
	PaymentStatus PaymentStatus

	// Shipping snapshot, copied from the resolved address at checkout.
	ShippingCity string
	ShippingArea string
	AddressLine1 string
	AddressLine2 string
	ContactPhone string

	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	Tax            decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal

	VoucherID      uuid.NullUUID
	Notes          string
	TrackingNumber string
	// IdempotencyKey records which client request created the order; empty
	// when the caller sent none.
	IdempotencyKey string

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem
}

// OrderItem snapshots one cart line at checkout time. Unit price, subtotal
// and the variant attribute map are frozen copies, independent of later
// catalog changes.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	VariantID   uuid.NullUUID
	ProductName string
	SKUCode     string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	VariantInfo map[string]string
}

// Transition moves the order to next, enforcing the state machine.
func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return NewInvalidTransition(o.Status, next)
	}
	o.Status = next
	return nil
}

// Cancel is permitted only while the order is still PENDING. Cancelling an
// already-cancelled order fails rather than silently succeeding.
func (o *Order) Cancel() error {
	return o.Transition(OrderCancelled)
}

// NewOrderNumber derives a unique human-readable order number from the
// creation time and owning user, with a random suffix so two checkouts in
// the same second cannot collide.
func NewOrderNumber(now time.Time, userID uuid.UUID) string {
	return fmt.Sprintf("ORD-%d-%s-%04x", now.Unix(), userID.String()[:8], rand.Uint32N(0x10000))
}
