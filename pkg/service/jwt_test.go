package service

import (
	"testing"
	"time"

	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestJWTService(accessTTL, refreshTTL time.Duration) JWTService {
	return NewJWTService("test-secret-key", accessTTL, refreshTTL, zap.NewNop())
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestJWTService(time.Hour, time.Hour*24)

	access, refresh, err := svc.GenerateTokens(42, constants.RoleTechnician)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	accessClaims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), accessClaims.UserID)
	assert.Equal(t, constants.RoleTechnician, accessClaims.Role)
	assert.False(t, accessClaims.IsRefreshToken)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.IsRefreshToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := newTestJWTService(time.Hour, time.Hour)
	verifier := NewJWTService("another-secret", time.Hour, time.Hour, zap.NewNop())

	access, _, err := issuer.GenerateTokens(1, constants.RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(-time.Minute, -time.Minute)

	access, _, err := svc.GenerateTokens(1, constants.RoleUser)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.Error(t, err, "просроченный токен не проходит проверку")
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestJWTService(time.Hour, time.Hour)

	_, err := svc.ValidateToken("это.не.токен")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
