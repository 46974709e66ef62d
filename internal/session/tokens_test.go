package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
)

var ann = models.Identity{UID: "u1", Email: "ann@example.com", Provider: models.ProviderPassword}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestMemTokenStore(t *testing.T) {
	store := NewMemTokenStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "tok", ann, time.Hour))
	identity, err := store.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, ann, identity)

	now = now.Add(time.Hour)
	_, err = store.Load(ctx, "tok")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "tok", ann, time.Hour))
	require.NoError(t, store.Delete(ctx, "tok"))
	_, err = store.Load(ctx, "tok")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)
}

func TestMemTokenStore_DeleteExpired(t *testing.T) {
	store := NewMemTokenStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "short", ann, time.Minute))
	require.NoError(t, store.Save(ctx, "long", ann, time.Hour))
	assert.Equal(t, 0, store.DeleteExpired())

	now = now.Add(time.Minute)
	assert.Equal(t, 1, store.DeleteExpired())
	assert.Equal(t, 1, store.Len())
	_, err := store.Load(ctx, "long")
	assert.NoError(t, err)
}

func TestRedisTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewRedisTokenStore(ctx, mr.Addr(), "")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)

	withToken := ann
	withToken.AccessToken = "jwt"
	require.NoError(t, store.Save(ctx, "tok", withToken, time.Minute))
	assert.True(t, mr.Exists(redisKeyPrefix+"tok"))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"tok"))

	identity, err := store.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, withToken, identity)

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "tok")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "tok", ann, time.Minute))
	require.NoError(t, store.Delete(ctx, "tok"))
	assert.False(t, mr.Exists(redisKeyPrefix+"tok"))
}

func TestRedisTokenStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisTokenStore(ctx, "127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestRedisTokenStore_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store, err := NewRedisTokenStore(ctx, mr.Addr(), "")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, mr.Set(redisKeyPrefix+"tok", "not json"))
	_, err = store.Load(ctx, "tok")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, internalerrors.ErrSessionNotFound)
}
