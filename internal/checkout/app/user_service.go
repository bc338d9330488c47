package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// UserCreatedHook runs synchronously inside the user-creation transaction.
// This replaces implicit framework signals with an explicit call site: the
// use case decides when the hook fires, and a failing hook aborts the
// registration.
type UserCreatedHook func(ctx context.Context, tx ports.Repository, user *entity.User) error

// UserService is the minimal registration surface the engine carries so the
// on-user-created hook has a caller. Full account management lives with the
// identity collaborator.
type UserService struct {
	repo  ports.Repository
	hooks []UserCreatedHook
}

func NewUserService(repo ports.Repository, hooks ...UserCreatedHook) *UserService {
	return &UserService{repo: repo, hooks: hooks}
}

// Register creates a user and fires the hooks in order.
func (s *UserService) Register(ctx context.Context, email, phone string) (*entity.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, entity.NewFieldValidation("invalid_email",
			map[string]string{"email": "a valid email is required"})
	}

	user := &entity.User{
		ID:        uuid.New(),
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	err := s.repo.ExecTx(ctx, func(tx ports.Repository) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		for _, hook := range s.hooks {
			if err := hook(ctx, tx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// DefaultRoleHook assigns the default role to every new user and drops any
// stale capability cache entry for them.
func DefaultRoleHook(resolver ports.CapabilityResolver) UserCreatedHook {
	return func(ctx context.Context, tx ports.Repository, user *entity.User) error {
		if err := tx.AssignRole(ctx, user.ID, entity.DefaultRole); err != nil {
			return err
		}
		user.Roles = append(user.Roles, entity.DefaultRole)
		if resolver != nil {
			if err := resolver.Invalidate(ctx, user.ID); err != nil {
				// Cache invalidation is best effort: the entry expires by TTL
				// anyway and the registration must not fail on a cache hiccup.
				slog.WarnContext(ctx, "capability cache invalidation failed",
					"user_id", user.ID, "error", err)
			}
		}
		return nil
	}
}
