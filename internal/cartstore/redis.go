// Package cartstore implements the cart on Redis. The storefront's cart
// endpoints own the contents; checkout only needs to empty it.
package cartstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/threadcart/backend/internal/domain/cart"
)

// cartKey is the Redis key holding a user's cart snapshot.
const cartKey = "cart:%s"

var _ cart.Store = (*RedisStore)(nil)

// RedisStore implements cart.Store on a Redis client.
type RedisStore struct {
	rdb *redis.Client
}

// New returns a RedisStore using the given client.
func New(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewClient creates a Redis client for the given address.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Clear empties the user's cart. DEL on a missing key is a no-op in Redis,
// which makes Clear idempotent for free.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(cartKey, userID)).Err(); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}
	return nil
}
