package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access-token payload. The token is ephemeral and never
// persisted; everything the caller may learn from it is re-checked
// against live identity state on each validation.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// signAccessToken mints an HS256 token for the identity. A missing
// signing key is fatal for the request, not retried.
func (s *Service) signAccessToken(id Identity, now time.Time) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrSigningUnavailable
	}
	expiresAt := now.Add(s.accessTTL)
	claims := Claims{
		Name:  id.Name,
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, ErrSigningUnavailable
	}
	return signed, expiresAt, nil
}

// verifyAccessToken checks signature and temporal claims with no grace
// window. Expiry is reported distinctly from malformed or mis-signed
// tokens; both end up as 401 at the boundary.
func (s *Service) verifyAccessToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	if len(s.secret) == 0 {
		return nil, ErrSigningUnavailable
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := s.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) validateClaims(claims *Claims) error {
	if strings.TrimSpace(claims.Subject) == "" {
		return ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return ErrInvalidToken
	}
	if _, err := ParseRole(claims.Role); err != nil {
		return ErrInvalidToken
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return ErrInvalidToken
	}
	return nil
}
