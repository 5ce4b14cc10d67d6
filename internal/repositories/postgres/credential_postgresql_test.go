package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

func TestCredentialPostgreSQL_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	idp := newCredentialPostgreSQL(setupTestDB(t), bcrypt.MinCost, nil)

	created, err := idp.SignUp(ctx, " Ann@School.test ", "123456")
	require.NoError(t, err)
	assert.Equal(t, "ann@school.test", created.Email)
	assert.NotEmpty(t, created.UID)

	_, err = idp.SignUp(ctx, "ann@school.test", "other")
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

	identity, err := idp.SignIn(ctx, "ANN@school.test", "123456")
	require.NoError(t, err)
	assert.Equal(t, created.UID, identity.UID)
	assert.Equal(t, "ann@school.test", identity.Email)
}

func TestCredentialPostgreSQL_SignInFailures(t *testing.T) {
	ctx := context.Background()
	idp := newCredentialPostgreSQL(setupTestDB(t), bcrypt.MinCost, nil)

	_, err := idp.SignUp(ctx, "ann@school.test", "123456")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ann@school.test", password: "nope"},
		{name: "unknown email", email: "bob@school.test", password: "123456"},
		{name: "empty password", email: "ann@school.test", password: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idp.SignIn(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, repositories.ErrInvalidCredentials)
		})
	}
}
