package usecase

import (
	"context"
	"testing"
	"time"

	"batchchat/internal/entity"
	"batchchat/internal/repository"
	"batchchat/pkg/jwt"

	"github.com/stretchr/testify/require"
)

func newAuthUsecase(t *testing.T) AuthUsecase {
	t.Helper()
	return NewAuthUsecase(
		repository.NewMemoryUserRepository(),
		repository.NewMemoryRefreshTokenRepository(),
		jwt.NewJWTManager("test-secret", 15*time.Minute, time.Hour),
	)
}

func registerAlice(t *testing.T, authUc AuthUsecase) entity.AuthResponse {
	t.Helper()
	response, err := authUc.Register(context.Background(), entity.RegisterRequest{
		Email: "alice@example.com", Password: "secret", FirstName: "Alice", LastName: "Ng",
	})
	require.NoError(t, err)
	return response
}

func TestRegister_IssuesTokens(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)

	response := registerAlice(t, authUc)
	req.NotEmpty(response.AccessToken)
	req.NotEmpty(response.RefreshToken)
	req.NotZero(response.User.Id)
	req.Equal(entity.RoleParticipant, response.User.Role)
	req.Empty(response.User.Password)

	claims, err := authUc.ValidateAccessToken(response.AccessToken)
	req.NoError(err)
	req.Equal(response.User.Id, claims.UserId)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)

	registerAlice(t, authUc)
	_, err := authUc.Register(context.Background(), entity.RegisterRequest{
		Email: "alice@example.com", Password: "other", FirstName: "Alice", LastName: "Two",
	})
	req.ErrorIs(err, ErrEmailAlreadyTaken)
}

func TestRegister_MissingFields(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)

	_, err := authUc.Register(context.Background(), entity.RegisterRequest{Email: "a@b.c"})
	req.ErrorIs(err, ErrMissingFields)
}

func TestRegister_UnknownRoleFallsBackToParticipant(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)

	response, err := authUc.Register(context.Background(), entity.RegisterRequest{
		Email: "admin@example.com", Password: "secret",
		FirstName: "Ada", LastName: "Min", Role: "ADMIN",
	})
	req.NoError(err)
	req.Equal(entity.RoleParticipant, response.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)
	ctx := context.Background()

	registerAlice(t, authUc)

	_, err := authUc.Login(ctx, entity.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	req.ErrorIs(err, ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password.
	_, err = authUc.Login(ctx, entity.LoginRequest{Email: "nobody@example.com", Password: "secret"})
	req.ErrorIs(err, ErrInvalidCredentials)

	response, err := authUc.Login(ctx, entity.LoginRequest{Email: "alice@example.com", Password: "secret"})
	req.NoError(err)
	req.NotEmpty(response.AccessToken)
}

func TestRefreshToken_RotatesOldToken(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)
	ctx := context.Background()

	registered := registerAlice(t, authUc)

	refreshed, err := authUc.RefreshToken(ctx, registered.RefreshToken)
	req.NoError(err)
	req.NotEqual(registered.RefreshToken, refreshed.RefreshToken)

	// The rotated-out token is revoked and cannot be replayed.
	_, err = authUc.RefreshToken(ctx, registered.RefreshToken)
	req.ErrorIs(err, ErrRevokedRefreshToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)
	ctx := context.Background()

	registered := registerAlice(t, authUc)
	req.NoError(authUc.Logout(ctx, registered.RefreshToken))

	_, err := authUc.RefreshToken(ctx, registered.RefreshToken)
	req.ErrorIs(err, ErrRevokedRefreshToken)
}

func TestLogoutAllDevices(t *testing.T) {
	req := require.New(t)
	authUc := newAuthUsecase(t)
	ctx := context.Background()

	registered := registerAlice(t, authUc)
	login, err := authUc.Login(ctx, entity.LoginRequest{Email: "alice@example.com", Password: "secret"})
	req.NoError(err)

	req.NoError(authUc.LogoutAllDevices(ctx, registered.User.Id))

	_, err = authUc.RefreshToken(ctx, registered.RefreshToken)
	req.ErrorIs(err, ErrRevokedRefreshToken)
	_, err = authUc.RefreshToken(ctx, login.RefreshToken)
	req.ErrorIs(err, ErrRevokedRefreshToken)
}
