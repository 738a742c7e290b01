package cartstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewClient(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestClear_RemovesCart(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("cart:u1", `[{"productId":"p1","size":"M","quantity":2}]`))
	require.NoError(t, mr.Set("cart:u2", `[{"productId":"p2","size":"L","quantity":1}]`))

	require.NoError(t, store.Clear(context.Background(), "u1"))

	assert.False(t, mr.Exists("cart:u1"))
	assert.True(t, mr.Exists("cart:u2"), "other users' carts stay untouched")
}

func TestClear_Idempotent(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("cart:u1", `[{"productId":"p1","size":"M","quantity":2}]`))

	require.NoError(t, store.Clear(context.Background(), "u1"))
	require.NoError(t, store.Clear(context.Background(), "u1"), "clearing an already-empty cart succeeds")
	assert.False(t, mr.Exists("cart:u1"))
}

func TestClear_NeverStoredCart(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Clear(context.Background(), "nobody"))
}
