package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// ErrWrongTokenType is returned when a valid token is presented where another type is expected.
var ErrWrongTokenType = errors.New("unexpected token type")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret           []byte
	ttl              time.Duration
	impersonationTTL time.Duration
	now              func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithImpersonationTTL overrides the impersonation token lifetime.
func WithImpersonationTTL(ttl time.Duration) TokenOption {
	return func(tm *TokenManager) {
		if ttl > 0 {
			tm.impersonationTTL = ttl
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int, opts ...TokenOption) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	tm := &TokenManager{
		secret:           []byte(secret),
		ttl:              time.Duration(ttlMinutes) * time.Minute,
		impersonationTTL: 5 * time.Minute,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes JWT payload. The subject is carried in the registered sub claim.
type Claims struct {
	Role           domain.GlobalRole         `json:"role,omitempty"`
	TenantID       string                    `json:"tenant_id,omitempty"`
	TenantRole     domain.TenantRole         `json:"tenant_role,omitempty"`
	ImpersonatorID string                    `json:"impersonator_id,omitempty"`
	Scope          domain.ImpersonationScope `json:"scope,omitempty"`
	TokenType      domain.TokenType          `json:"token_type"`
	jwt.RegisteredClaims
}

// Principal converts access-token claims into a principal. Email is filled
// by the caller from the user record.
func (c *Claims) Principal() *domain.Principal {
	return &domain.Principal{
		UserID:         c.Subject,
		Role:           c.Role,
		TenantID:       c.TenantID,
		TenantRole:     c.TenantRole,
		ImpersonatorID: c.ImpersonatorID,
		Scope:          c.Scope,
	}
}

// GenerateAccessToken signs a session token for p.
func (tm *TokenManager) GenerateAccessToken(p domain.Principal) (string, time.Time, error) {
	claims := &Claims{
		Role:           p.Role,
		TenantID:       p.TenantID,
		TenantRole:     p.TenantRole,
		ImpersonatorID: p.ImpersonatorID,
		Scope:          p.Scope,
		TokenType:      domain.TokenTypeAccess,
	}
	return tm.sign(p.UserID, claims, tm.ttl)
}

// GenerateImpersonationToken signs a short-lived grant that lets
// impersonatorID act as targetUserID. The jti is returned for single-use
// bookkeeping.
func (tm *TokenManager) GenerateImpersonationToken(targetUserID, impersonatorID string, scope domain.ImpersonationScope) (string, string, time.Time, error) {
	claims := &Claims{
		ImpersonatorID: impersonatorID,
		Scope:          scope,
		TokenType:      domain.TokenTypeImpersonation,
	}
	token, exp, err := tm.sign(targetUserID, claims, tm.impersonationTTL)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, claims.ID, exp, nil
}

func (tm *TokenManager) sign(subject string, claims *Claims, ttl time.Duration) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates the signature, expiry and token type and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string, expected domain.TokenType) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenType != expected {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
