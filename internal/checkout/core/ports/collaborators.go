package ports

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authentication collaborator: it maps an opaque credential
// to a user ID or fails with an unauthenticated error. Token issuance is out
// of scope.
type Identity interface {
	CurrentUser(ctx context.Context, token string) (uuid.UUID, error)
}

// CapabilityResolver answers "does this principal hold this capability" from
// a request-scoped call, backed by an injectable cache with explicit TTL and
// invalidation. No process-wide ambient cache.
type CapabilityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (map[string]bool, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
