package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles gate which routes a session may access.
const (
	RoleParent = "parent"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// Token types distinguish short-lived access tokens from refresh tokens.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// TokenIssuer mints and validates the HS256 session tokens this platform
// issues for itself. It is the in-process replacement for the hosted
// identity provider the client used to talk to.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is what sign-in and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issue returns a fresh access/refresh pair for the given user.
func (ti *TokenIssuer) Issue(userID, role string) (*TokenPair, error) {
	access, err := ti.sign(userID, role, TokenAccess, ti.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := ti.sign(userID, role, TokenRefresh, ti.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(ti.accessTTL.Seconds()),
	}, nil
}

func (ti *TokenIssuer) sign(userID, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      role,
		TokenType: tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Parse validates a token string and returns its claims. The expected token
// type must match; a refresh token is not accepted where an access token is
// required, and vice versa.
func (ti *TokenIssuer) Parse(tokenStr, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("expected %s token, got %s", expectedType, claims.TokenType)
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (ti *TokenIssuer) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := ti.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return nil, err
	}
	return ti.Issue(claims.Subject, claims.Role)
}
