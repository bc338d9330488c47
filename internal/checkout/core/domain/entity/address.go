package entity

import "github.com/google/uuid"

// Address is a shipping destination from the user's address book. The
// address book itself is an external collaborator; checkout only reads it.
type Address struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	City         string
	Area         string
	AddressLine1 string
	AddressLine2 string
	PhoneNumber  string
	IsDefault    bool
}
