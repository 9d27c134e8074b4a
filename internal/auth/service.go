package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
)

// Service verifies credentials, issues and validates tokens, and manages
// the session lifecycle for both principal kinds. It holds no mutable
// state beyond the injected store; instances are safe for concurrent use
// and the service is horizontally replicable.
type Service struct {
	store Store
	now   func() time.Time

	secret     []byte
	issuer     string
	accessTTL  time.Duration
	sessionTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithSigningSecret sets the HS256 signing key.
func WithSigningSecret(secret string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(secret) == "" {
			return errors.New("auth: signing secret is empty")
		}
		s.secret = []byte(secret)
		return nil
	}
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		s.issuer = strings.TrimSpace(issuer)
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithSessionTTL configures refresh token and session lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		store:      store,
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// LoginInput carries one credential presentation plus client metadata
// recorded on the issued session.
type LoginInput struct {
	Identifier string
	Password   string
	Role       Role
	ClientIP   string
	UserAgent  string
}

// LoginResult is the outcome of a successful login. RefreshToken and
// SessionToken are opaque bearer secrets handed to the client once and
// stored server-side only as one-way hashes.
type LoginResult struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	SessionToken string
	SessionID    string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	ExpiresIn    int
}

// ValidationResult is the outcome of a successful token validation.
type ValidationResult struct {
	Identity      Identity
	IssuedAt      time.Time
	ExpiresAt     time.Time
	TimeRemaining time.Duration
}

// VerifyCredentials checks an identifier/password pair against the
// identity store for the given role. Pure read: no writes happen here.
//
// The password is verified before the live-status predicate so that a
// pending or disabled account is only distinguishable from a bad
// password by a caller who already holds the correct password.
func (s *Service) VerifyCredentials(ctx context.Context, identifier, password string, role Role) (Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	switch role {
	case RoleAdmin:
		admin, err := s.store.Admins(ctx).FindByUsername(ctx, identifier)
		if err != nil {
			return Identity{}, err
		}
		if err := VerifyPassword(admin.PasswordHash, password); err != nil {
			return Identity{}, ErrInvalidCredentials
		}
		if !admin.Active() {
			return Identity{}, ErrInactive
		}
		return Identity{
			ID:        admin.ID,
			Name:      admin.Name,
			Email:     admin.Email,
			Role:      RoleAdmin,
			Status:    admin.Status,
			CreatedAt: admin.CreatedAt,
		}, nil

	case RoleOrganization:
		org, err := s.store.Organizations(ctx).FindByEmail(ctx, strings.ToLower(identifier))
		if err != nil {
			return Identity{}, err
		}
		if err := VerifyPassword(org.PasswordHash, password); err != nil {
			return Identity{}, ErrInvalidCredentials
		}
		if org.Status == "pending" {
			return Identity{}, ErrPendingApproval
		}
		if !org.Active() {
			return Identity{}, ErrInactive
		}
		return Identity{
			ID:        org.ID,
			Name:      org.Name,
			Email:     org.Email,
			Role:      RoleOrganization,
			Status:    org.Status,
			CreatedAt: org.CreatedAt,
		}, nil

	default:
		return Identity{}, ErrInvalidInput
	}
}

// Login authenticates the credentials and issues a fresh access token
// plus one refresh/session pair. The pair is persisted atomically: a
// login never leaves a half-issued session behind.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	identity, err := s.VerifyCredentials(ctx, in.Identifier, in.Password, in.Role)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now().UTC()
	accessToken, expiresAt, err := s.signAccessToken(identity, now)
	if err != nil {
		return LoginResult{}, err
	}

	refreshValue, refreshRec, err := s.newRefreshToken(identity, now, in)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate refresh token: %w", err)
	}
	sessionValue, sessionRec, err := s.newSession(identity, refreshRec.ID, now, in)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session token: %w", err)
	}

	if err := s.store.CreateLoginPair(ctx, refreshRec, sessionRec); err != nil {
		return LoginResult{}, fmt.Errorf("persist login pair: %w", err)
	}

	return LoginResult{
		Identity:     identity,
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		SessionToken: sessionValue,
		SessionID:    sessionRec.ID,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
		ExpiresIn:    int(s.accessTTL / time.Second),
	}, nil
}

// Validate verifies the bearer access token and re-reads the identity's
// live status. Status is never cached across requests: a deactivated
// identity fails here on the very next call, which bounds the staleness
// of a revocation to the access token TTL.
func (s *Service) Validate(ctx context.Context, bearer string) (ValidationResult, error) {
	claims, err := s.verifyAccessToken(bearer)
	if err != nil {
		return ValidationResult{}, err
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return ValidationResult{}, ErrInvalidToken
	}

	identity, err := s.liveIdentity(ctx, claims.Subject, role)
	if err != nil {
		return ValidationResult{}, err
	}

	now := s.now().UTC()
	return ValidationResult{
		Identity:      identity,
		IssuedAt:      claims.IssuedAt.Time,
		ExpiresAt:     claims.ExpiresAt.Time,
		TimeRemaining: claims.ExpiresAt.Time.Sub(now),
	}, nil
}

// Revoke invalidates the session named by the presented opaque session
// token together with its linked refresh token. Idempotent.
func (s *Service) Revoke(ctx context.Context, sessionToken string) error {
	id, secret, err := splitOpaque(sessionToken)
	if err != nil {
		return ErrInvalidToken
	}
	sessions := s.store.Sessions(ctx)
	sess, err := sessions.Find(ctx, id)
	if err != nil {
		return err
	}
	if !secureCompareHash(sess.SecretHash, secret) {
		return ErrInvalidToken
	}
	if err := sessions.MarkRevoked(ctx, sess.ID); err != nil {
		return err
	}
	if sess.RefreshTokenID != "" {
		if err := s.store.RefreshTokens(ctx).MarkRevoked(ctx, sess.RefreshTokenID); err != nil {
			return err
		}
	}
	return nil
}

// liveIdentity re-fetches the identity and applies the role-specific
// status predicate.
func (s *Service) liveIdentity(ctx context.Context, subject string, role Role) (Identity, error) {
	switch role {
	case RoleAdmin:
		admin, err := s.store.Admins(ctx).Find(ctx, subject)
		if err != nil {
			return Identity{}, err
		}
		if !admin.Active() {
			return Identity{}, ErrInactive
		}
		return Identity{
			ID:        admin.ID,
			Name:      admin.Name,
			Email:     admin.Email,
			Role:      RoleAdmin,
			Status:    admin.Status,
			CreatedAt: admin.CreatedAt,
		}, nil
	case RoleOrganization:
		org, err := s.store.Organizations(ctx).Find(ctx, subject)
		if err != nil {
			return Identity{}, err
		}
		if !org.Active() {
			return Identity{}, ErrInactive
		}
		return Identity{
			ID:        org.ID,
			Name:      org.Name,
			Email:     org.Email,
			Role:      RoleOrganization,
			Status:    org.Status,
			CreatedAt: org.CreatedAt,
		}, nil
	default:
		return Identity{}, ErrInvalidInput
	}
}

func (s *Service) newRefreshToken(id Identity, now time.Time, in LoginInput) (string, *RefreshToken, error) {
	value, hash, recordID, err := newOpaque()
	if err != nil {
		return "", nil, err
	}
	return value, &RefreshToken{
		ID:         recordID,
		UserID:     id.ID,
		Role:       id.Role,
		SecretHash: hash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.sessionTTL),
		ClientIP:   in.ClientIP,
		UserAgent:  in.UserAgent,
	}, nil
}

func (s *Service) newSession(id Identity, refreshTokenID string, now time.Time, in LoginInput) (string, *Session, error) {
	value, hash, recordID, err := newOpaque()
	if err != nil {
		return "", nil, err
	}
	return value, &Session{
		ID:             recordID,
		UserID:         id.ID,
		Role:           id.Role,
		SecretHash:     hash,
		RefreshTokenID: refreshTokenID,
		ExpiresAt:      now.Add(s.sessionTTL),
		ClientIP:       in.ClientIP,
		UserAgent:      in.UserAgent,
	}, nil
}

// newOpaque mints an opaque bearer credential: `<recordID>.<secret>`
// with 256 bits of randomness in the secret. Only the SHA-256 hex of the
// secret is stored; the presented value is compared by re-hashing.
func newOpaque() (value, hash, recordID string, err error) {
	secretBytes := make([]byte, 32)
	if _, err = rand.Read(secretBytes); err != nil {
		return "", "", "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	recordID = ids.New()
	sum := sha256.Sum256([]byte(secret))
	return recordID + "." + secret, hex.EncodeToString(sum[:]), recordID, nil
}

func splitOpaque(raw string) (id, secret string, err error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid opaque token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	return subtleCompare(expectedHash, actual)
}

func subtleCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
