package entity

import (
	"time"

	"github.com/google/uuid"
)

// Capability names an action a principal may be granted, e.g. "voucher:create".
type Capability string

const (
	CapVoucherCreate Capability = "voucher:create"
	CapVoucherUpdate Capability = "voucher:update"
	CapVoucherDelete Capability = "voucher:delete"
	CapOrderManage   Capability = "order:manage"
)

// DefaultRole is assigned to every newly created user by the
// on-user-created hook.
const DefaultRole = "customer"

// User is the minimum identity surface the engine needs: an owner for carts,
// orders and addresses, plus role names for capability resolution.
type User struct {
	ID        uuid.UUID
	Email     string
	Phone     string
	Roles     []string
	CreatedAt time.Time
}

// authKind discriminates the AuthDecision variants.
type authKind uint8

const (
	authAllowed authKind = iota + 1
	authDenied
	authUnauthenticated
)

// AuthDecision is the tagged result of an authorization check: Allowed,
// Denied with a reason, or Unauthenticated.
type AuthDecision struct {
	kind   authKind
	reason string
}

func Allowed() AuthDecision                { return AuthDecision{kind: authAllowed} }
func Denied(reason string) AuthDecision    { return AuthDecision{kind: authDenied, reason: reason} }
func Unauthenticated() AuthDecision        { return AuthDecision{kind: authUnauthenticated} }
func (d AuthDecision) IsAllowed() bool     { return d.kind == authAllowed }
func (d AuthDecision) IsDenied() bool      { return d.kind == authDenied }
func (d AuthDecision) IsAnonymous() bool   { return d.kind == authUnauthenticated }
func (d AuthDecision) Reason() string      { return d.reason }
