package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

func setupSessionStore(t *testing.T) (*miniredis.Miniredis, repositories.SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewSessionRedis(client)
}

func TestSessionRedis_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mr, store := setupSessionStore(t)

	identity := models.Identity{UID: "u1", Email: "ann@school.test"}
	session, err := store.Create(ctx, identity, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, mr.Exists("session:"+session.Token))

	got, err := store.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, identity, got.Identity)

	require.NoError(t, store.Delete(ctx, session.Token))
	_, err = store.Get(ctx, session.Token)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, session.Token))
}

func TestSessionRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, store := setupSessionStore(t)

	session, err := store.Create(ctx, models.Identity{UID: "u1", Email: "ann@school.test"}, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, session.Token)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSessionRedis_Invalid(t *testing.T) {
	ctx := context.Background()
	_, store := setupSessionStore(t)

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = store.Create(ctx, models.Identity{}, time.Minute)
	assert.Error(t, err)
}
