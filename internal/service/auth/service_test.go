package auth

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/auth"
	"github.com/cmlabs-hris/payroll-disbursement/internal/fixtures"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessExp  = "1h"
	testRefreshExp = "24h"
	testSecret     = "test-secret-key-for-jwt"
)

func newTestAuthService(t *testing.T) (auth.AuthService, jwt.Service, *fixtures.SeededDataIDs) {
	t.Helper()

	store := memory.NewStore()
	repos := fixtures.Repositories{
		Users:     memory.NewUserRepository(store),
		Companies: memory.NewCompanyRepository(store),
		Employees: memory.NewEmployeeRepository(store),
	}
	seeded, err := fixtures.Bootstrap(context.Background(), store, repos, fixtures.BootstrapInput{
		CompanyName:    "Acme",
		AccountNumber:  "1000200030",
		OpeningBalance: decimal.NewFromInt(42),
		AdminUsername:  "admin",
		AdminPassword:  "password123",
	})
	require.NoError(t, err)

	jwtService := jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp)
	return NewAuthService(repos.Users, repos.Companies, jwtService), jwtService, seeded
}

func TestLogin_Success(t *testing.T) {
	svc, jwtService, seeded := newTestAuthService(t)

	tokens, err := svc.Login(context.Background(), auth.LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.InDelta(t, 3600, tokens.ExpiresIn, 5)

	ctx, err := jwt.NewContext(context.Background(), jwtService.JWTAuth(), tokens.AccessToken)
	require.NoError(t, err)

	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.User.Username)
	assert.Equal(t, "admin", me.User.Role)
	assert.Equal(t, seeded.CompanyID, me.Account.CompanyID)
	assert.Equal(t, "42", me.Account.CurrentBalance.String())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), auth.LoginRequest{Username: "ghost", Password: "password123"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), auth.LoginRequest{})
	assert.Error(t, err)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, jwtService, _ := newTestAuthService(t)

	tokens, err := svc.Login(context.Background(), auth.LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), tokens.AccessToken))
	assert.True(t, jwtService.IsTokenRevoked(tokens.AccessToken))

	assert.ErrorIs(t, svc.Logout(context.Background(), ""), auth.ErrInvalidToken)
}
