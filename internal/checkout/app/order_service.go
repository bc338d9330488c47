package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// OrderService handles the order lifecycle after creation: reads scoped to
// the owning user and status transitions through the state machine.
type OrderService struct {
	repo ports.Repository
}

func NewOrderService(repo ports.Repository) *OrderService {
	return &OrderService{repo: repo}
}

// GetOrder returns the order only to its owner; anyone else sees not-found
// rather than learning the order exists.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, entity.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

// Cancel moves a PENDING order to CANCELLED and restores the stock the
// checkout took. Orders in any other state — including already cancelled
// ones — are rejected.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*entity.Order, error) {
	var cancelled *entity.Order
	err := s.repo.ExecTx(ctx, func(tx ports.Repository) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return entity.ErrOrderNotFound
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := tx.AdjustStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		if err := tx.UpdateOrderStatus(ctx, order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order cancelled", "order_number", cancelled.OrderNumber, "user_id", userID)
	return cancelled, nil
}

// UpdateStatus is the admin-side transition: it enforces the state machine
// and only ever touches status and tracking number.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next entity.OrderStatus, trackingNumber string) (*entity.Order, error) {
	if !next.Valid() {
		return nil, entity.NewFieldValidation("invalid_status",
			map[string]string{"status": "unknown order status"})
	}

	var updated *entity.Order
	err := s.repo.ExecTx(ctx, func(tx ports.Repository) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Transition(next); err != nil {
			return err
		}
		if trackingNumber != "" {
			order.TrackingNumber = trackingNumber
		}
		if err := tx.UpdateOrderStatus(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
