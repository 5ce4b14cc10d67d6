package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// CachedUserStore puts a cache-aside layer in front of GetUser.
// Writes go to the underlying store first and then evict the profile.
type CachedUserStore struct {
	next   repositories.UserStore
	helper *CacheHelper
	config CacheConfig
}

func NewCachedUserStore(next repositories.UserStore, cm *CacheManager) *CachedUserStore {
	return &CachedUserStore{
		next:   next,
		helper: cm.User,
		config: UserCacheConfig,
	}
}

func userKey(email string) string {
	return fmt.Sprintf("email:%s", strings.ToLower(email))
}

func (s *CachedUserStore) GetUser(ctx context.Context, email string) (*models.UserRecord, error) {
	var user models.UserRecord
	err := s.helper.CacheOrExecute(ctx, userKey(email), &user, s.config.TTL, func() (interface{}, error) {
		return s.next.GetUser(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	user.Normalize()
	return &user, nil
}

func (s *CachedUserStore) SetUser(ctx context.Context, user *models.UserRecord) error {
	if err := s.next.SetUser(ctx, user); err != nil {
		return err
	}
	s.Evict(ctx, user.Email)
	return nil
}

func (s *CachedUserStore) UpdateProfile(ctx context.Context, email, name, classGrade, section string) error {
	if err := s.next.UpdateProfile(ctx, email, name, classGrade, section); err != nil {
		return err
	}
	s.Evict(ctx, email)
	return nil
}

func (s *CachedUserStore) AppendToField(ctx context.Context, email string, field models.ArrayField, value interface{}) error {
	if err := s.next.AppendToField(ctx, email, field, value); err != nil {
		return err
	}
	s.Evict(ctx, email)
	return nil
}

func (s *CachedUserStore) ListUsers(ctx context.Context) ([]*models.UserRecord, error) {
	return s.next.ListUsers(ctx)
}

// Evict drops the cached profile of email
func (s *CachedUserStore) Evict(ctx context.Context, email string) {
	SafeDelete(ctx, s.helper, userKey(email))
}
