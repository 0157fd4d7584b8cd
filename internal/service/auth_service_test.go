package service

import (
	"context"
	"testing"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/config"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (AuthService, *stubUserRepo, *model.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubUserRepo()
	u := &model.User{Username: "meera", Name: "Meera", PasswordHash: string(hash), Role: RoleOwner, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), u))

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8, JWTRefreshHours: 24}
	return NewAuthService(repo, cfg), repo, u
}

func TestLogin(t *testing.T) {
	svc, _, u := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "meera", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, u.ID.String(), resp.User.ID)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "owner", claims["role"])
	assert.Equal(t, "meera", claims["username"])
	assert.Equal(t, "access", claims["use"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, repo, u := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "meera", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.users[u.ID].IsActive = false
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "meera", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	svc, repo, u := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "meera", Password: "s3cret"})
	require.NoError(t, err)

	resp, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "access tokens cannot be refreshed")

	repo.users[u.ID].IsActive = false
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RejectsBadTokens(t *testing.T) {
	svc, _, u := newAuthFixture(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	stale, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for _, tok := range []string{"garbage", signed, stale} {
		_, err := svc.Refresh(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
