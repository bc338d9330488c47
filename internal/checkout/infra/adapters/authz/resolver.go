package authz

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
)

const cacheOperation = "capabilities"

// CachedResolver answers capability lookups from redis, falling back to the
// store. Cache failures degrade to a direct lookup rather than failing the
// request; a stale entry lasts at most the TTL or until Invalidate.
type CachedResolver struct {
	users ports.Users
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedResolver(users ports.Users, c cache.Cache, ttl time.Duration) *CachedResolver {
	return &CachedResolver{users: users, cache: c, ttl: ttl}
}

func (r *CachedResolver) Resolve(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	key := r.cache.GenerateKey(cacheOperation, userID.String())

	if cached, err := r.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "capability cache read failed", "user_id", userID, "error", err)
	} else if cached != "" {
		var caps map[string]bool
		if err := json.Unmarshal([]byte(cached), &caps); err == nil {
			return caps, nil
		}
		slog.WarnContext(ctx, "capability cache entry corrupt, refetching", "user_id", userID)
	}

	granted, err := r.users.ListCapabilities(ctx, userID)
	if err != nil {
		return nil, err
	}
	caps := make(map[string]bool, len(granted))
	for _, c := range granted {
		caps[string(c)] = true
	}

	if payload, err := json.Marshal(caps); err == nil {
		if err := r.cache.Set(ctx, key, payload, r.ttl); err != nil {
			slog.WarnContext(ctx, "capability cache write failed", "user_id", userID, "error", err)
		}
	}
	return caps, nil
}

func (r *CachedResolver) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return r.cache.Delete(ctx, r.cache.GenerateKey(cacheOperation, userID.String()))
}
