package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User roles. Superadmin accounts belong to no clinic and are signed with a
// separate secret.
const (
	RoleAdmin      = "admin"
	RoleDoctor     = "psicologo"
	RoleSecretary  = "secretaria"
	RoleSuperAdmin = "superadmin"
)

// Claims are the JWT payload for both clinic users and super-admins.
type Claims struct {
	jwt.RegisteredClaims
	Name       string `json:"name"`
	Role       string `json:"role"`
	ClinicSlug string `json:"clinic_slug,omitempty"`
}

// TokenManager issues and parses HMAC-signed JWTs.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager for the given signing secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the user. The jti is a fresh UUID so individual
// tokens can be revoked at logout.
func (m *TokenManager) Issue(userID int64, name, role, clinicSlug string) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, fmt.Errorf("auth: signing secret not configured")
	}
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Name:       name,
		Role:       role,
		ClinicSlug: clinicSlug,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates the signature and expiry and returns the claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return claims, nil
}
