package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

const addressColumns = `id, user_id, city, area, address_line1, address_line2, phone_number, is_default`

// GetAddress returns the address only when it belongs to the given user;
// another user's address id behaves as if it did not exist.
func (s *Store) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*entity.Address, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = ? AND user_id = ?`,
		addressID.String(), userID.String())

	addr, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAddressNotFound
	}
	return addr, err
}

// GetDefaultAddress returns (nil, nil) when the user has no default address.
func (s *Store) GetDefaultAddress(ctx context.Context, userID uuid.UUID) (*entity.Address, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = ? AND is_default = 1 LIMIT 1`,
		userID.String())

	addr, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return addr, err
}

// CreateAddress exists for seeding and tests; address book management is an
// external collaborator's surface.
func (s *Store) CreateAddress(ctx context.Context, a *entity.Address) error {
	const q = `
		INSERT INTO addresses (id, user_id, city, area, address_line1, address_line2, phone_number, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, q,
		a.ID.String(), a.UserID.String(), a.City, a.Area,
		a.AddressLine1, a.AddressLine2, a.PhoneNumber, boolToInt(a.IsDefault))
	if err != nil {
		return fmt.Errorf("sqlite: create address: %w", err)
	}
	return nil
}

func scanAddress(row scanner) (*entity.Address, error) {
	var (
		a               entity.Address
		rawID, rawUser  string
		isDefault       int64
	)
	err := row.Scan(&rawID, &rawUser, &a.City, &a.Area,
		&a.AddressLine1, &a.AddressLine2, &a.PhoneNumber, &isDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan address: %w", err)
	}
	if a.ID, err = parseUUID(rawID); err != nil {
		return nil, err
	}
	if a.UserID, err = parseUUID(rawUser); err != nil {
		return nil, err
	}
	a.IsDefault = isDefault != 0
	return &a, nil
}
