package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(role rbac.Role, dept string) *identity.Account {
	return &identity.Account{
		ID:           uuid.New(),
		Email:        string(role) + "@optitalent.com",
		Role:         role,
		DepartmentID: dept,
		Active:       true,
	}
}

func TestJWTService_GenerateToken(t *testing.T) {
	service, err := NewJWTService([]byte("test-secret-key"), "test-issuer", time.Hour)
	require.NoError(t, err)

	token, claims, err := service.GenerateToken(context.Background(), testAccount(rbac.RoleManager, "engineering"))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Contains(t, token, ".")
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestJWTService_ValidateToken(t *testing.T) {
	service, err := NewJWTService([]byte("test-secret-key"), "test-issuer", time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("round trips role and department", func(t *testing.T) {
		account := testAccount(rbac.RoleManager, "engineering")
		token, issued, err := service.GenerateToken(ctx, account)
		require.NoError(t, err)

		claims, err := service.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, claims.AccountID)
		assert.Equal(t, rbac.RoleManager, claims.Role)
		assert.Equal(t, "engineering", claims.DepartmentID)
		assert.Equal(t, issued.TokenID, claims.TokenID)
		assert.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt))
	})

	t.Run("each token gets its own jti", func(t *testing.T) {
		account := testAccount(rbac.RoleEmployee, "")
		_, a, err := service.GenerateToken(ctx, account)
		require.NoError(t, err)
		_, b, err := service.GenerateToken(ctx, account)
		require.NoError(t, err)
		assert.NotEqual(t, a.TokenID, b.TokenID)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.ValidateToken(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other, err := NewJWTService([]byte("different-key"), "test-issuer", time.Hour)
		require.NoError(t, err)
		token, _, err := other.GenerateToken(ctx, testAccount(rbac.RoleAdmin, ""))
		require.NoError(t, err)

		_, err = service.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService([]byte("test-secret-key"), "someone-else", time.Hour)
		require.NoError(t, err)
		token, _, err := other.GenerateToken(ctx, testAccount(rbac.RoleAdmin, ""))
		require.NoError(t, err)

		_, err = service.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		short, err := NewJWTService([]byte("test-secret-key"), "test-issuer", time.Minute)
		require.NoError(t, err)
		issuedAt := time.Now().Add(-2 * time.Minute)
		short.now = func() time.Time { return issuedAt }

		token, _, err := short.GenerateToken(ctx, testAccount(rbac.RoleAdmin, ""))
		require.NoError(t, err)

		short.now = time.Now
		_, err = short.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
