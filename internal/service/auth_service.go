package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/pkg/config"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type authAccounts interface {
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// AuthService issues and validates access tokens. Phone is the login
// identifier across every role.
type AuthService struct {
	accounts  authAccounts
	jwt       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs AuthService.
func NewAuthService(accounts authAccounts, jwtCfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{accounts: accounts, jwt: jwtCfg, validator: validate, logger: logger}
}

// Login authenticates by phone and password. A role supplied in the request
// must match the stored role; a mismatch is indistinguishable from a wrong
// password in the response.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	account, err := s.accounts.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !account.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	if req.Role != "" && req.Role != account.Role {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, issuedAt, err := s.generateAccessToken(account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue access token")
	}

	s.logger.Info("login succeeded",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)),
	)
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwt.Expiration.Seconds()),
		IssuedAt:    issuedAt,
		User:        accountInfo(account),
	}, nil
}

// Me returns the authenticated account's public info.
func (s *AuthService) Me(ctx context.Context, accountID string) (*models.AccountInfo, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	info := accountInfo(account)
	return &info, nil
}

func (s *AuthService) generateAccessToken(account *models.Account) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := models.JWTClaims{
		AccountID: account.ID,
		Phone:     account.Phone,
		Role:      account.Role,
		FullName:  account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwt.Issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwt.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, now, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwt.Secret), nil
	}, jwt.WithIssuer(s.jwt.Issuer))
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func accountInfo(account *models.Account) models.AccountInfo {
	return models.AccountInfo{
		ID:       account.ID,
		Phone:    account.Phone,
		Email:    account.Email,
		FullName: account.FullName,
		Role:     account.Role,
	}
}
