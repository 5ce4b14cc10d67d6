package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-dashboard/internal/config"
	"github.com/SAP-F-2025/school-dashboard/internal/models"
)

func testManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		SessionTTL: time.Hour,
		Admin:      AdminConfig{ImportPolicy: config.ImportPolicyPreserve, DefaultPassword: "123456"},
		Teacher:    TeacherConfig{FanoutConcurrency: 4, Location: time.UTC},
	}
}

func TestServiceManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(models.NewUserRecord("t@school.test", "Tia", models.RoleTeacher, "", ""))
	_, err := repo.identity.SignUp(ctx, "t@school.test", "pw")
	require.NoError(t, err)

	sm := NewServiceManager(repo, testLogger(), newTestValidator(), newTestPublisher(), &recordingSender{}, testManagerConfig())
	assert.Panics(t, func() { sm.Auth() })
	assert.Error(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Initialize(ctx))
	require.NoError(t, sm.Initialize(ctx))
	assert.NotNil(t, sm.Notification())
	assert.NotNil(t, sm.Admin())
	assert.NotNil(t, sm.Teacher())
	assert.NotNil(t, sm.Student())
	assert.NoError(t, sm.HealthCheck(ctx))

	session, err := sm.Auth().SignIn(ctx, &LoginRequest{Email: "t@school.test", Password: "pw"})
	require.NoError(t, err)
	state := sm.View().OnSessionChange(ctx, &session.Identity)
	assert.Equal(t, models.PanelTeacher, state.Panel)

	// sign-out reaches the view's cache listener
	require.NoError(t, sm.Auth().SignOut(ctx, session.Token))
	assert.Equal(t, []string{"t@school.test"}, repo.users.evicted)

	repo.pingErr = errors.New("db down")
	assert.Error(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Shutdown(ctx))
	require.NoError(t, sm.Shutdown(ctx))
	assert.Error(t, sm.HealthCheck(ctx))
}

func TestServiceManager_WithoutSender(t *testing.T) {
	sm := NewServiceManager(newFakeRepo(), testLogger(), newTestValidator(), nil, nil, testManagerConfig())
	require.NoError(t, sm.Initialize(context.Background()))
	assert.Nil(t, sm.Notification())
}

func TestServiceManager_InvalidConfig(t *testing.T) {
	cfg := testManagerConfig()
	cfg.SessionTTL = 0
	sm := NewServiceManager(newFakeRepo(), testLogger(), newTestValidator(), nil, nil, cfg)
	assert.Error(t, sm.Initialize(context.Background()))
}
