package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account. Phone is the
// login identifier; Role, when provided, must match the stored role.
type LoginRequest struct {
	Phone    string      `json:"phone" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     AccountRole `json:"role" validate:"omitempty"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	User        AccountInfo `json:"user"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID       string      `json:"id"`
	Phone    string      `json:"phone"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     AccountRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID string      `json:"account_id"`
	Phone     string      `json:"phone"`
	Role      AccountRole `json:"role"`
	FullName  string      `json:"full_name"`
	jwt.RegisteredClaims
}
