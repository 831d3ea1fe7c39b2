package jwt

import (
	"testing"
	"time"

	"batchchat/internal/entity"

	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", 15*time.Minute, 30*24*time.Hour)

	user := entity.User{Id: 42, Role: entity.RoleMentor}
	token, err := manager.GenerateAccessToken(user)
	req.NoError(err)

	claims, err := manager.ValidateAccessToken(token)
	req.NoError(err)
	req.EqualValues(42, claims.UserId)
	req.Equal(entity.RoleMentor, claims.Role)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", -time.Minute, 30*24*time.Hour)

	token, err := manager.GenerateAccessToken(entity.User{Id: 1})
	req.NoError(err)

	_, err = manager.ValidateAccessToken(token)
	req.ErrorIs(err, ErrExpiredToken)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", 15*time.Minute, 30*24*time.Hour)
	other := NewJWTManager("different-secret", 15*time.Minute, 30*24*time.Hour)

	token, err := manager.GenerateAccessToken(entity.User{Id: 1})
	req.NoError(err)

	_, err = other.ValidateAccessToken(token)
	req.ErrorIs(err, ErrInvalidToken)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", 15*time.Minute, 30*24*time.Hour)

	_, err := manager.ValidateAccessToken("not-a-token")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", 15*time.Minute, 30*24*time.Hour)

	first, err := manager.GenerateRefreshToken()
	req.NoError(err)
	second, err := manager.GenerateRefreshToken()
	req.NoError(err)
	req.NotEqual(first, second)
}
