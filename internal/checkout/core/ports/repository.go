package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

// Catalog resolves pricing and stock data for products and variants. Catalog
// management itself is out of scope; checkout only reads it.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*entity.Variant, error)
	// AdjustStock decrements (negative delta) or restores stock for a product
	// or, when variantID is valid, one of its variants.
	AdjustStock(ctx context.Context, productID uuid.UUID, variantID uuid.NullUUID, delta int64) error
}

// Carts persists the mutable cart aggregate.
type Carts interface {
	// GetOrCreateCart returns the user's cart, creating it on first access.
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]entity.CartItem, error)
	GetCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*entity.CartItem, error)
	// UpsertCartItem inserts a line or, when one already exists for the same
	// (cart, product, variant), replaces its quantity.
	UpsertCartItem(ctx context.Context, item *entity.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int64) error
	DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	// ClearCart deletes every item but keeps the cart row.
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// Orders persists immutable order records. Order rows are append-only except
// for status, payment status and tracking number.
type Orders interface {
	CreateOrder(ctx context.Context, order *entity.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	UpdateOrderStatus(ctx context.Context, order *entity.Order) error
}

// Vouchers persists discount vouchers.
type Vouchers interface {
	GetVoucherByCode(ctx context.Context, code string) (*entity.Voucher, error)
	GetVoucher(ctx context.Context, id uuid.UUID) (*entity.Voucher, error)
	CreateVoucher(ctx context.Context, v *entity.Voucher) error
	UpdateVoucher(ctx context.Context, v *entity.Voucher) error
	DeleteVoucher(ctx context.Context, id uuid.UUID) error
	ListVouchers(ctx context.Context) ([]entity.Voucher, error)
	// IncrementVoucherUsage bumps times_used by one. Called only inside a
	// successful checkout transaction.
	IncrementVoucherUsage(ctx context.Context, id uuid.UUID) error
}

// AddressBook reads shipping addresses owned by the requesting user.
type AddressBook interface {
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*entity.Address, error)
	// GetDefaultAddress returns (nil, nil) when the user has no default.
	GetDefaultAddress(ctx context.Context, userID uuid.UUID) (*entity.Address, error)
}

// Users is the minimal user store: registration and role assignment.
type Users interface {
	CreateUser(ctx context.Context, u *entity.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role string) error
	// ListCapabilities returns the union of capabilities granted to the
	// user's roles.
	ListCapabilities(ctx context.Context, userID uuid.UUID) ([]entity.Capability, error)
	GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error)
}

// OutboxEvent is one pending integration event written in the same
// transaction as the state change it describes.
type OutboxEvent struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}

// Outbox is the transactional outbox for integration events.
type Outbox interface {
	InsertOutboxEvent(ctx context.Context, eventID, topic, key string, payload []byte) error
	FetchPendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxEventSent(ctx context.Context, id int64) error
}

// Repository bundles every persistence port behind one transaction boundary.
// ExecTx runs fn against a repository bound to a single write transaction;
// any error rolls back every write made through it.
type Repository interface {
	Catalog
	Carts
	Orders
	Vouchers
	AddressBook
	Users
	Outbox
	ExecTx(ctx context.Context, fn func(Repository) error) error
}
