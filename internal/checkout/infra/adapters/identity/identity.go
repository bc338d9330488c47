package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// TokenIdentity resolves bearer tokens against the api_tokens table. It is
// deliberately dumb: no expiry logic beyond what the store enforces, no
// issuance.
type TokenIdentity struct {
	users ports.Users
}

func NewTokenIdentity(users ports.Users) *TokenIdentity {
	return &TokenIdentity{users: users}
}

func (i *TokenIdentity) CurrentUser(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return uuid.Nil, entity.ErrUnauthenticated
	}
	return i.users.GetUserIDByToken(ctx, token)
}
