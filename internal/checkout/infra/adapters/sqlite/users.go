package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

func (s *Store) CreateUser(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, email, phone, created_at) VALUES (?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, q, u.ID.String(), u.Email, u.Phone, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: create user %q: %w", u.Email, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, email, phone, created_at FROM users WHERE id = ?`, id.String())

	var (
		u              entity.User
		rawID, created string
	)
	err := row.Scan(&rawID, &u.Email, &u.Phone, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("user_not_found", "user does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get user %s: %w", id, err)
	}
	if u.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseRFC3339(created); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, id.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list roles for user %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("sqlite: scan role: %w", err)
		}
		u.Roles = append(u.Roles, role)
	}
	return &u, rows.Err()
}

func (s *Store) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		userID.String(), role)
	if err != nil {
		return fmt.Errorf("sqlite: assign role %q to %s: %w", role, userID, err)
	}
	return nil
}

// ListCapabilities returns the union of capabilities granted through the
// user's roles.
func (s *Store) ListCapabilities(ctx context.Context, userID uuid.UUID) ([]entity.Capability, error) {
	const q = `
		SELECT DISTINCT rc.capability
		FROM   user_roles ur
		JOIN   role_capabilities rc ON rc.role = ur.role
		WHERE  ur.user_id = ?
		ORDER  BY rc.capability`

	rows, err := s.q.QueryContext(ctx, q, userID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list capabilities for %s: %w", userID, err)
	}
	defer rows.Close()

	var caps []entity.Capability
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("sqlite: scan capability: %w", err)
		}
		caps = append(caps, entity.Capability(c))
	}
	return caps, rows.Err()
}

func (s *Store) GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT user_id FROM api_tokens WHERE token = ?`, token)

	var rawID string
	err := row.Scan(&rawID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, entity.ErrUnauthenticated
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("sqlite: look up token: %w", err)
	}
	return parseUUID(rawID)
}

// GrantCapability attaches a capability to a role. Used by seeding; the
// engine itself only reads grants.
func (s *Store) GrantCapability(ctx context.Context, role string, cap entity.Capability) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO role_capabilities (role, capability) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		role, string(cap))
	if err != nil {
		return fmt.Errorf("sqlite: grant %s to role %q: %w", cap, role, err)
	}
	return nil
}

// CreateToken stores an opaque API token for a user. Token issuance proper
// is the identity provider's job; this backs local development and tests.
func (s *Store) CreateToken(ctx context.Context, token string, userID uuid.UUID) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO api_tokens (token, user_id) VALUES (?, ?)`,
		token, userID.String())
	if err != nil {
		return fmt.Errorf("sqlite: create token: %w", err)
	}
	return nil
}
