package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

type countingStore struct {
	mu    sync.Mutex
	users map[string]*models.UserRecord
	gets  int
}

func (s *countingStore) GetUser(ctx context.Context, email string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	u, ok := s.users[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *countingStore) SetUser(ctx context.Context, user *models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.Email] = &cp
	return nil
}

func (s *countingStore) UpdateProfile(ctx context.Context, email, name, classGrade, section string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Name, u.ClassGrade, u.Section = name, classGrade, section
	return nil
}

func (s *countingStore) AppendToField(ctx context.Context, email string, field models.ArrayField, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return repositories.ErrNotFound
	}
	if field == models.FieldMsgs {
		u.Msgs = append(u.Msgs, value.(string))
	}
	return nil
}

func (s *countingStore) ListUsers(ctx context.Context) ([]*models.UserRecord, error) {
	return nil, nil
}

func setupCachedStore(t *testing.T) (*miniredis.Miniredis, *countingStore, *CachedUserStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backing := &countingStore{users: map[string]*models.UserRecord{}}
	return mr, backing, NewCachedUserStore(backing, NewCacheManager(client))
}

func TestCachedUserStore_GetUserIsCached(t *testing.T) {
	ctx := context.Background()
	mr, backing, store := setupCachedStore(t)
	require.NoError(t, store.SetUser(ctx, models.NewUserRecord("ann@school.test", "Ann", models.RoleStudent, "10", "A")))

	for i := 0; i < 3; i++ {
		u, err := store.GetUser(ctx, "ann@school.test")
		require.NoError(t, err)
		assert.Equal(t, "Ann", u.Name)
	}
	assert.Equal(t, 1, backing.gets)
	assert.True(t, mr.Exists("user:email:ann@school.test"))
}

func TestCachedUserStore_WritesEvict(t *testing.T) {
	ctx := context.Background()
	mr, backing, store := setupCachedStore(t)
	require.NoError(t, store.SetUser(ctx, models.NewUserRecord("ann@school.test", "Ann", models.RoleStudent, "10", "A")))

	_, err := store.GetUser(ctx, "ann@school.test")
	require.NoError(t, err)

	require.NoError(t, store.AppendToField(ctx, "ann@school.test", models.FieldMsgs, "hello"))
	assert.False(t, mr.Exists("user:email:ann@school.test"))

	u, err := store.GetUser(ctx, "ann@school.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, u.Msgs)
	assert.Equal(t, 2, backing.gets)

	require.NoError(t, store.UpdateProfile(ctx, "ann@school.test", "Annie", "11", "B"))
	assert.False(t, mr.Exists("user:email:ann@school.test"))

	u, err = store.GetUser(ctx, "ann@school.test")
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)
	assert.Equal(t, []string{"hello"}, u.Msgs)
}

func TestCachedUserStore_NotFoundPassesThrough(t *testing.T) {
	_, _, store := setupCachedStore(t)

	_, err := store.GetUser(context.Background(), "ghost@school.test")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCachedUserStore_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{users: map[string]*models.UserRecord{}}
	store := NewCachedUserStore(backing, NewCacheManager(nil))
	require.NoError(t, store.SetUser(ctx, models.NewUserRecord("ann@school.test", "Ann", models.RoleStudent, "10", "A")))

	_, err := store.GetUser(ctx, "ann@school.test")
	require.NoError(t, err)
	_, err = store.GetUser(ctx, "ann@school.test")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.gets)
}
