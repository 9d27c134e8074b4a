package auth

import (
	"strings"
	"time"
)

// Role is the closed set of principal kinds the service authenticates.
// It decides the lookup source, the live-status predicate and the claim
// shape; it is parsed once at the service boundary and never re-branched
// from raw strings further down.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleOrganization Role = "organization"
)

// ParseRole maps a client-supplied user type onto the closed Role set.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleOrganization:
		return RoleOrganization, nil
	default:
		return "", ErrInvalidInput
	}
}

// Admin is a back-office principal authenticated by username.
type Admin struct {
	ID           string
	Name         string
	Username     string
	Email        string
	Status       string // active | inactive
	PasswordHash string
	CreatedAt    time.Time
}

// Active reports whether the admin passes the live-status predicate.
func (a *Admin) Active() bool {
	return a.Status == "active"
}

// Organization is a partner principal authenticated by email. Status is
// driven by admin approval; IsActive toggles independently of it. Both
// must hold for login and for every subsequent validation.
type Organization struct {
	ID           string
	Name         string
	Email        string
	Status       string // pending | approved | disabled
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
}

// Active reports whether the organization passes the live-status predicate.
func (o *Organization) Active() bool {
	return o.Status == "approved" && o.IsActive
}

// Identity is the role-neutral summary handed to callers. It carries no
// credentials and is safe to serialize into responses and audit fields.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Status    string
	CreatedAt time.Time
}

// RefreshToken is the persisted half of a refresh credential. SecretHash
// is the SHA-256 hex of the opaque secret; the secret itself is never
// stored.
type RefreshToken struct {
	ID         string
	UserID     string
	Role       Role
	SecretHash string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ClientIP   string
	UserAgent  string
	Revoked    bool
}

// Session binds a login event to client context. It references the
// refresh token issued alongside it; the two live and die together.
type Session struct {
	ID             string
	UserID         string
	Role           Role
	SecretHash     string
	RefreshTokenID string
	ExpiresAt      time.Time
	ClientIP       string
	UserAgent      string
	Revoked        bool
}

// SecurityEvent is one append-only audit record tied to an authenticated
// identity.
type SecurityEvent struct {
	ID         string
	OccurredAt time.Time
	ActorID    string
	ActorRole  Role
	EventType  string
	Fields     map[string]string
	RequestID  string
}
