package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
)

// Purpose separates the three token kinds; a token only validates for the
// purpose it was issued with.
type Purpose string

const (
	PurposeVerify  Purpose = "verify"
	PurposeReset   Purpose = "reset"
	PurposeSession Purpose = "session"
)

// TTL returns the fixed lifetime of a token purpose.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeVerify:
		return 24 * time.Hour
	case PurposeReset, PurposeSession:
		return time.Hour
	}
	return 0
}

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenManager issues and validates HS256 tokens. Validation depends only on
// the token, the secret and the clock.
type TokenManager struct {
	Secret []byte
	Now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{Secret: []byte(secret), Now: time.Now}
}

type Claims struct {
	UserID  string      `json:"uid"`
	Role    entity.Role `json:"role,omitempty"`
	Purpose Purpose     `json:"typ"`
	jwt.RegisteredClaims
}

// Issue signs a token for subject. The role claim is only kept on session tokens.
func (m *TokenManager) Issue(subjectID string, purpose Purpose, role entity.Role) (string, time.Time, error) {
	ttl := purpose.TTL()
	if ttl == 0 {
		return "", time.Time{}, errors.New("unknown token purpose")
	}
	if purpose != PurposeSession {
		role = ""
	}
	now := m.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID:  subjectID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Validate checks signature, expiry and purpose. A well-signed token past its
// expiry yields ErrTokenExpired; everything else that fails yields ErrTokenInvalid.
func (m *TokenManager) Validate(tokenStr string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid || claims.UserID == "" || claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	if purpose == PurposeSession && !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssuedAtOrBefore reports whether the token was issued no later than t, at
// second precision. A zero t never matches.
func (c *Claims) IssuedAtOrBefore(t time.Time) bool {
	if c.IssuedAt == nil || t.IsZero() {
		return false
	}
	return c.IssuedAt.Unix() <= t.Unix()
}
