// Package sqlite provides the SQLite-backed implementation of
// ports.Repository.
//
// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
// requirements, making it easier to build and run in Docker (Alpine).
//
// Concurrency model: the connection string requests _txlock=immediate so
// every transaction takes the write lock up front, and the pool is capped at
// one open connection. Concurrent checkouts therefore serialize at the
// database, which is what closes the stock/voucher double-spend race: stock
// and times_used are re-read and mutated inside the same transaction that
// commits the order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Idempotent via IF NOT EXISTS.
//
// Storage conventions: UUIDs and RFC3339 timestamps as TEXT, money as TEXT
// holding the decimal string form (SQLite has no decimal type and floats
// must never touch money). A missing variant is the empty string, not NULL,
// so the UNIQUE(cart_id, product_id, variant_id) constraint actually bites —
// SQLite treats NULLs as pairwise distinct.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    base_price     TEXT NOT NULL,
    discount_price TEXT NOT NULL DEFAULT '0',
    stock_quantity INTEGER NOT NULL DEFAULT 0,
    has_variants   INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS variants (
    id             TEXT PRIMARY KEY,
    product_id     TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    sku_code       TEXT NOT NULL UNIQUE,
    price          TEXT NOT NULL DEFAULT '0',
    discount_price TEXT NOT NULL DEFAULT '0',
    stock_quantity INTEGER NOT NULL DEFAULT 0,
    -- JSON object mapping attribute name to value, serialised with sorted
    -- keys so the uniqueness index below catches duplicate value-sets.
    attributes     TEXT NOT NULL DEFAULT '{}'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_variants_value_set
    ON variants(product_id, attributes);

CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    email      TEXT NOT NULL UNIQUE,
    phone      TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_roles (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role    TEXT NOT NULL,
    UNIQUE (user_id, role)
);

CREATE TABLE IF NOT EXISTS role_capabilities (
    role       TEXT NOT NULL,
    capability TEXT NOT NULL,
    UNIQUE (role, capability)
);

CREATE TABLE IF NOT EXISTS api_tokens (
    token   TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS addresses (
    id            TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    city          TEXT NOT NULL,
    area          TEXT NOT NULL,
    address_line1 TEXT NOT NULL,
    address_line2 TEXT NOT NULL DEFAULT '',
    phone_number  TEXT NOT NULL DEFAULT '',
    is_default    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS carts (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
    id         TEXT PRIMARY KEY,
    cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    product_id TEXT NOT NULL REFERENCES products(id),
    -- '' when the product has no variants.
    variant_id TEXT NOT NULL DEFAULT '',
    quantity   INTEGER NOT NULL CHECK (quantity >= 1),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (cart_id, product_id, variant_id)
);

CREATE TABLE IF NOT EXISTS vouchers (
    id                  TEXT PRIMARY KEY,
    code                TEXT NOT NULL UNIQUE,
    discount_type       TEXT NOT NULL,
    discount_value      TEXT NOT NULL,
    max_discount_amount TEXT NOT NULL DEFAULT '0',
    valid_from          TEXT NOT NULL,
    valid_to            TEXT NOT NULL,
    -- 0 means unlimited.
    usage_limit         INTEGER NOT NULL DEFAULT 0,
    times_used          INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES users(id),
    order_number    TEXT NOT NULL UNIQUE,
    status          TEXT NOT NULL,
    payment_status  TEXT NOT NULL,
    shipping_city   TEXT NOT NULL,
    shipping_area   TEXT NOT NULL,
    address_line1   TEXT NOT NULL,
    address_line2   TEXT NOT NULL DEFAULT '',
    contact_phone   TEXT NOT NULL DEFAULT '',
    subtotal        TEXT NOT NULL,
    shipping_cost   TEXT NOT NULL DEFAULT '0',
    tax             TEXT NOT NULL DEFAULT '0',
    discount_amount TEXT NOT NULL DEFAULT '0',
    total           TEXT NOT NULL,
    voucher_id      TEXT NOT NULL DEFAULT '',
    notes           TEXT NOT NULL DEFAULT '',
    tracking_number TEXT NOT NULL DEFAULT '',
    idempotency_key TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);

-- A replayed Idempotency-Key must find the order it created; keys are only
-- unique when actually supplied.
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_idempotency
    ON orders(user_id, idempotency_key) WHERE idempotency_key != '';

CREATE TABLE IF NOT EXISTS order_items (
    id           TEXT PRIMARY KEY,
    order_id     TEXT NOT NULL REFERENCES orders(id),
    product_id   TEXT NOT NULL,
    variant_id   TEXT NOT NULL DEFAULT '',
    product_name TEXT NOT NULL,
    sku_code     TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity >= 1),
    unit_price   TEXT NOT NULL,
    subtotal     TEXT NOT NULL,
    -- Frozen copy of the variant attribute map at order time.
    variant_info TEXT NOT NULL DEFAULT '{}',
    UNIQUE (order_id, product_id, variant_id)
);

CREATE TABLE IF NOT EXISTS outbox (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id   TEXT NOT NULL,
    topic      TEXT NOT NULL,
    key        TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    sent_at    TEXT
);

CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(id) WHERE sent_at IS NULL;
`

// dbtx is satisfied by both *sql.DB and *sql.Tx, letting every query method
// run either standalone or inside ExecTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ports.Repository over SQLite.
type Store struct {
	db *sql.DB // nil when this store is bound to a transaction
	q  dbtx
}

var _ ports.Repository = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
//
//	store, err := sqlite.Open("./data/checkout.db")
func Open(path string) (*Store, error) {
	// _txlock=immediate makes BeginTx take the write lock immediately instead
	// of upgrading lazily, so write transactions cannot deadlock each other.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// Single writer connection: SQLite performs best this way and it makes
	// transaction serialization unconditional.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db, q: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// ExecTx runs fn against a repository bound to a single transaction. Any
// error from fn rolls back every write. Nested calls reuse the enclosing
// transaction rather than opening a second one.
func (s *Store) ExecTx(ctx context.Context, fn func(ports.Repository) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	if err := fn(&Store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit tx: %w", err)
	}
	return nil
}
