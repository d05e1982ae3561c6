package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathology-lab-server/config"
	"pathology-lab-server/models"
	"pathology-lab-server/types"
)

func TestGenerateAndValidateToken(t *testing.T) {
	config.Load()
	svc := NewJWTService()

	user := &models.User{ID: 7, FullName: "Lab Admin", Role: models.RoleAdmin}
	token, expiresIn, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresIn, int64(0))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
	assert.Equal(t, "Lab Admin", claims.FullName)
}

func TestValidateTokenRejectsUnexpectedSigningMethod(t *testing.T) {
	config.Load()
	svc := NewJWTService()

	claims := &types.Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	config.Load()
	svc := NewJWTService()

	claims := &types.Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := expired.SignedString([]byte(config.AppConfig.JWT.Secret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	config.Load()
	svc := NewJWTService()

	token, _, err := svc.GenerateToken(&models.User{ID: 7, Role: models.RolePatient})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := NewJWTService()

	hash, err := svc.HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, svc.CheckPasswordHash("Sup3rSecret", hash))
	assert.False(t, svc.CheckPasswordHash("WrongPassword1", hash))
}
