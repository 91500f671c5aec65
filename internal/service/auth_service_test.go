package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/pkg/config"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type mockAuthAccounts struct {
	byPhone map[string]*models.Account
}

func (m *mockAuthAccounts) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	if a, ok := m.byPhone[phone]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthAccounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	for _, a := range m.byPhone {
		if a.ID == id {
			copy := *a
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "placement-cell-api"}
}

func newAuthFixture(t *testing.T) (*AuthService, *models.Account) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	account := &models.Account{
		ID:           "a1",
		Phone:        "9876543210",
		Email:        "asha.verma@gmail.com",
		PasswordHash: string(hash),
		FullName:     "Asha Verma",
		Role:         models.RoleStudent,
		Active:       true,
	}
	accounts := &mockAuthAccounts{byPhone: map[string]*models.Account{account.Phone: account}}
	return NewAuthService(accounts, testJWTConfig(), nil, nil), account
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, account := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Phone: account.Phone, Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, account.ID, res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, account.Phone, claims.Phone)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, account := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Phone: account.Phone, Password: "wrongpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownPhone(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Phone: "0000000000", Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, account := newAuthFixture(t)
	account.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Phone: account.Phone, Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginRoleMismatch(t *testing.T) {
	svc, account := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Phone:    account.Phone,
		Password: "supersecret",
		Role:     models.RoleTeacher,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, account := newAuthFixture(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Phone: account.Phone, Password: "supersecret"})
	require.NoError(t, err)

	other := NewAuthService(&mockAuthAccounts{}, config.JWTConfig{Secret: "other_secret", Expiration: time.Hour, Issuer: "placement-cell-api"}, nil, nil)
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
}
