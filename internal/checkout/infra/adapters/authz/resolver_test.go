package authz_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/authz"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/sqlite"
)

// memCache is an in-process stand-in for redis with the same miss semantics.
type memCache struct {
	data map[string]string
	// fail makes every operation error to exercise the fallback path.
	fail bool
	sets int
	gets int
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.fail {
		return errors.New("cache down")
	}
	c.sets++
	c.data[key] = string(value.([]byte))
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	if c.fail {
		return "", errors.New("cache down")
	}
	c.gets++
	return c.data[key], nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	if c.fail {
		return errors.New("cache down")
	}
	delete(c.data, key)
	return nil
}

func (c *memCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("test:%s:%s", operation, key)
}

func newAdminUser(t *testing.T) (*sqlite.Store, uuid.UUID) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "admin@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.GrantCapability(ctx, "admin", entity.CapVoucherCreate))
	require.NoError(t, store.AssignRole(ctx, user.ID, "admin"))
	return store, user.ID
}

func TestCachedResolver_ResolveAndCache(t *testing.T) {
	ctx := context.Background()
	store, userID := newAdminUser(t)
	cache := newMemCache()
	resolver := authz.NewCachedResolver(store, cache, time.Minute)

	caps, err := resolver.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.True(t, caps[string(entity.CapVoucherCreate)])
	assert.False(t, caps[string(entity.CapOrderManage)])
	assert.Equal(t, 1, cache.sets)

	// Second resolve is served from the cache: no second write.
	caps, err = resolver.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.True(t, caps[string(entity.CapVoucherCreate)])
	assert.Equal(t, 1, cache.sets)
}

func TestCachedResolver_InvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	store, userID := newAdminUser(t)
	cache := newMemCache()
	resolver := authz.NewCachedResolver(store, cache, time.Minute)

	_, err := resolver.Resolve(ctx, userID)
	require.NoError(t, err)

	// Grant another capability; the cached entry does not know it yet.
	require.NoError(t, store.GrantCapability(ctx, "admin", entity.CapOrderManage))
	caps, err := resolver.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.False(t, caps[string(entity.CapOrderManage)])

	require.NoError(t, resolver.Invalidate(ctx, userID))
	caps, err = resolver.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.True(t, caps[string(entity.CapOrderManage)])
}

func TestCachedResolver_FallsThroughWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	store, userID := newAdminUser(t)
	cache := newMemCache()
	cache.fail = true
	resolver := authz.NewCachedResolver(store, cache, time.Minute)

	caps, err := resolver.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.True(t, caps[string(entity.CapVoucherCreate)])
}
