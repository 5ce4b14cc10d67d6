package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

func newTestAuth(repo *fakeRepo, pub events.EventPublisher) AuthService {
	return NewAuthService(repo, testLogger(), newTestValidator(), pub, time.Hour)
}

func TestAuthService_SignInAndOut(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	pub := newTestPublisher()
	auth := newTestAuth(repo, pub)

	_, err := auth.SignUp(ctx, " Ann@School.test ", "secret")
	require.NoError(t, err)

	var changes []SessionChange
	unsubscribe := auth.OnSessionChange(func(ctx context.Context, c SessionChange) {
		changes = append(changes, c)
	})

	session, err := auth.SignIn(ctx, &LoginRequest{Email: "ANN@school.test", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "ann@school.test", session.Identity.Email)

	got, err := auth.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity, got.Identity)

	require.NoError(t, auth.SignOut(ctx, session.Token))
	_, err = auth.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.Len(t, changes, 2)
	require.NotNil(t, changes[0].Identity)
	assert.Equal(t, "ann@school.test", changes[0].Identity.Email)
	assert.Nil(t, changes[1].Identity)
	require.NotNil(t, changes[1].Previous)
	assert.Equal(t, "ann@school.test", changes[1].Previous.Email)

	assert.Len(t, pub.EventsOfType(events.SessionSignedIn), 1)
	assert.Len(t, pub.EventsOfType(events.SessionSignedOut), 1)

	unsubscribe()
	unsubscribe()
	_, err = auth.SignIn(ctx, &LoginRequest{Email: "ann@school.test", Password: "secret"})
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestAuthService_SignInFailures(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	auth := newTestAuth(repo, nil)
	_, err := auth.SignUp(ctx, "ann@school.test", "secret")
	require.NoError(t, err)

	_, err = auth.SignIn(ctx, &LoginRequest{Email: "ann@school.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, repositories.ErrInvalidCredentials)

	_, err = auth.SignIn(ctx, &LoginRequest{Email: "nobody@school.test", Password: "secret"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.SignIn(ctx, &LoginRequest{Email: "  ", Password: "secret"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAuthService_SignUpDuplicate(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(newFakeRepo(), nil)

	_, err := auth.SignUp(ctx, "ann@school.test", "secret")
	require.NoError(t, err)
	_, err = auth.SignUp(ctx, "ANN@school.test", "other")
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)
}

func TestAuthService_SignOutUnknownToken(t *testing.T) {
	auth := newTestAuth(newFakeRepo(), nil)

	var got *SessionChange
	auth.OnSessionChange(func(ctx context.Context, c SessionChange) {
		got = &c
	})

	require.NoError(t, auth.SignOut(context.Background(), "missing"))
	require.NotNil(t, got)
	assert.Nil(t, got.Identity)
	assert.Nil(t, got.Previous)
}

func TestAuthService_PublishFailureDoesNotFailSignIn(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	pub := newTestPublisher()
	pub.FailWith(errors.New("broker down"))
	auth := newTestAuth(repo, pub)

	_, err := auth.SignUp(ctx, "ann@school.test", "secret")
	require.NoError(t, err)
	_, err = auth.SignIn(ctx, &LoginRequest{Email: "ann@school.test", Password: "secret"})
	assert.NoError(t, err)
}

func TestAuthService_AuthenticateEmptyToken(t *testing.T) {
	auth := newTestAuth(newFakeRepo(), nil)
	_, err := auth.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
