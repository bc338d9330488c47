package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// CartService owns the mutable cart aggregate. Prices shown on the cart are
// live — resolved against the catalog at read time, not frozen — and stock
// is deliberately not checked here: validation happens at checkout, mirroring
// the cart-as-a-wishlist behavior of the storefront.
type CartService struct {
	repo  ports.Repository
	locks *UserLocks
}

func NewCartService(repo ports.Repository, locks *UserLocks) *CartService {
	return &CartService{repo: repo, locks: locks}
}

// GetCart returns the user's cart with live-priced items and totals,
// creating the cart on first access.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*entity.CartView, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	priced := make([]entity.PricedCartItem, 0, len(items))
	for _, item := range items {
		p, v, err := s.loadCatalog(ctx, item.ProductID, item.VariantID)
		if err != nil {
			return nil, err
		}
		priced = append(priced, entity.PriceCartItem(item, p, v))
	}

	view := entity.BuildCartView(*cart, priced)
	return &view, nil
}

// AddItem adds a line or, when one already exists for the same
// (product, variant), replaces its quantity — last write wins, not additive.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, variantID uuid.NullUUID, quantity int64) (*entity.CartView, error) {
	if quantity < 1 {
		return nil, entity.NewFieldValidation("invalid_quantity",
			map[string]string{"quantity": "quantity must be at least 1"})
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.HasVariants && !variantID.Valid {
		return nil, entity.NewVariantRequired()
	}
	if variantID.Valid {
		variant, err := s.repo.GetVariant(ctx, variantID.UUID)
		if err != nil {
			return nil, err
		}
		if variant.ProductID != productID {
			return nil, entity.NewFieldValidation("invalid_variant",
				map[string]string{"variant_id": "variant does not belong to the selected product"})
		}
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item := &entity.CartItem{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}
	if err := s.repo.UpsertCartItem(ctx, item); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity changes one line's quantity.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int64) (*entity.CartView, error) {
	if quantity < 1 {
		return nil, entity.NewFieldValidation("invalid_quantity",
			map[string]string{"quantity": "quantity must be at least 1"})
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetCartItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Quantity != quantity {
		if err := s.repo.UpdateCartItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
			return nil, err
		}
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes one line.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.DeleteCartItem(ctx, cart.ID, itemID)
}

// Clear empties the cart, keeping the cart itself.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.ClearCart(ctx, cart.ID)
}

// loadCatalog fetches a product and, when set, its variant through any
// repository view (live or transaction-bound).
func loadCatalogFrom(ctx context.Context, repo ports.Repository, productID uuid.UUID, variantID uuid.NullUUID) (*entity.Product, *entity.Variant, error) {
	product, err := repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	var variant *entity.Variant
	if variantID.Valid {
		if variant, err = repo.GetVariant(ctx, variantID.UUID); err != nil {
			return nil, nil, err
		}
	}
	return product, variant, nil
}

func (s *CartService) loadCatalog(ctx context.Context, productID uuid.UUID, variantID uuid.NullUUID) (*entity.Product, *entity.Variant, error) {
	return loadCatalogFrom(ctx, s.repo, productID, variantID)
}
