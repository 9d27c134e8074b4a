package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Admins(ctx context.Context) AdminStore
	Organizations(ctx context.Context) OrganizationStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
	Sessions(ctx context.Context) SessionStore
	Events(ctx context.Context) EventStore

	// CreateLoginPair persists a refresh token and its linked session as
	// one logical transaction. Either both records exist afterwards or
	// neither does.
	CreateLoginPair(ctx context.Context, tok *RefreshToken, sess *Session) error
}

// AdminStore reads admin identities.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	Find(ctx context.Context, id string) (*Admin, error)
}

// OrganizationStore reads organization identities.
type OrganizationStore interface {
	FindByEmail(ctx context.Context, email string) (*Organization, error)
	Find(ctx context.Context, id string) (*Organization, error)
}

// RefreshTokenStore manages refresh token lifecycle.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	MarkRevoked(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SessionStore manages session records.
type SessionStore interface {
	Create(ctx context.Context, sess *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	MarkRevoked(ctx context.Context, id string) error
}

// EventStore appends immutable security events.
type EventStore interface {
	Append(ctx context.Context, event *SecurityEvent) error
}
