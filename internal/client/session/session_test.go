package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, Session{AccessToken: "abc", CompanyID: "c-1"}))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.CompanyID)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ts := TokenSource(ctx, store)

	_, err := ts.Token()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, Session{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Hour)}))
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)

	require.NoError(t, store.Save(ctx, Session{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
	_, err = ts.Token()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "payrollctl-test:")
	require.NoError(t, store.Clear(ctx))

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, Session{AccessToken: "abc", BatchID: "b-1", ExpiresAt: time.Now().Add(time.Minute)}))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.BatchID)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
