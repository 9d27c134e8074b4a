package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Admins(context.Context) AdminStore               { return &adminStore{db: s.db} }
func (s *PGStore) Organizations(context.Context) OrganizationStore { return &orgStore{db: s.db} }
func (s *PGStore) RefreshTokens(context.Context) RefreshTokenStore { return &refreshStore{db: s.db} }
func (s *PGStore) Sessions(context.Context) SessionStore           { return &sessionStore{db: s.db} }
func (s *PGStore) Events(context.Context) EventStore               { return &eventStore{db: s.db} }

// CreateLoginPair inserts the refresh token and session in one
// transaction so a failed session insert can never leave an orphaned,
// live refresh record.
func (s *PGStore) CreateLoginPair(ctx context.Context, tok *RefreshToken, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, role, secret_hash, issued_at, expires_at, client_ip, user_agent)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		tok.ID, tok.UserID, string(tok.Role), tok.SecretHash, tok.IssuedAt, tok.ExpiresAt, tok.ClientIP, tok.UserAgent,
	); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`insert into sessions(id, user_id, role, secret_hash, refresh_token_id, expires_at, client_ip, user_agent)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		sess.ID, sess.UserID, string(sess.Role), sess.SecretHash, sess.RefreshTokenID, sess.ExpiresAt, sess.ClientIP, sess.UserAgent,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

// Admin store ---------------------------------------------------------------
type adminStore struct{ db *sql.DB }

const adminColumns = `id, name, username, email, status, password_hash, created_at`

func (s *adminStore) FindByUsername(ctx context.Context, username string) (*Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from admins where username=$1`, username)
	return scanAdmin(row)
}

func (s *adminStore) Find(ctx context.Context, id string) (*Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from admins where id=$1`, id)
	return scanAdmin(row)
}

func scanAdmin(row *sql.Row) (*Admin, error) {
	var a Admin
	if err := row.Scan(&a.ID, &a.Name, &a.Username, &a.Email, &a.Status, &a.PasswordHash, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Organization store --------------------------------------------------------
type orgStore struct{ db *sql.DB }

const orgColumns = `id, name, email, status, is_active, password_hash, created_at`

func (s *orgStore) FindByEmail(ctx context.Context, email string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+orgColumns+` from organizations where email=$1`, email)
	return scanOrganization(row)
}

func (s *orgStore) Find(ctx context.Context, id string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+orgColumns+` from organizations where id=$1`, id)
	return scanOrganization(row)
}

func scanOrganization(row *sql.Row) (*Organization, error) {
	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Email, &o.Status, &o.IsActive, &o.PasswordHash, &o.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Refresh token store -------------------------------------------------------
type refreshStore struct{ db *sql.DB }

func (s *refreshStore) Create(ctx context.Context, tok *RefreshToken) error {
	if tok.ID == "" {
		tok.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, role, secret_hash, issued_at, expires_at, client_ip, user_agent)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		tok.ID, tok.UserID, string(tok.Role), tok.SecretHash, tok.IssuedAt, tok.ExpiresAt, tok.ClientIP, tok.UserAgent,
	)
	return err
}

func (s *refreshStore) Find(ctx context.Context, id string) (*RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, role, secret_hash, issued_at, expires_at, client_ip, user_agent, revoked
		 from refresh_tokens where id=$1`, id)
	var (
		t    RefreshToken
		role string
	)
	if err := row.Scan(&t.ID, &t.UserID, &role, &t.SecretHash, &t.IssuedAt, &t.ExpiresAt, &t.ClientIP, &t.UserAgent, &t.Revoked); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Role = Role(role)
	return &t, nil
}

func (s *refreshStore) MarkRevoked(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked=true where id=$1`, id)
	return err
}

func (s *refreshStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from refresh_tokens where id=$1`, id)
	return err
}

// Session store -------------------------------------------------------------
type sessionStore struct{ db *sql.DB }

func (s *sessionStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, user_id, role, secret_hash, refresh_token_id, expires_at, client_ip, user_agent)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		sess.ID, sess.UserID, string(sess.Role), sess.SecretHash, sess.RefreshTokenID, sess.ExpiresAt, sess.ClientIP, sess.UserAgent,
	)
	return err
}

func (s *sessionStore) Find(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, role, secret_hash, refresh_token_id, expires_at, client_ip, user_agent, revoked
		 from sessions where id=$1`, id)
	var (
		sess Session
		role string
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &role, &sess.SecretHash, &sess.RefreshTokenID, &sess.ExpiresAt, &sess.ClientIP, &sess.UserAgent, &sess.Revoked); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sess.Role = Role(role)
	return &sess, nil
}

func (s *sessionStore) MarkRevoked(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update sessions set revoked=true where id=$1`, id)
	return err
}

// Security event store ------------------------------------------------------
type eventStore struct{ db *sql.DB }

func (s *eventStore) Append(ctx context.Context, event *SecurityEvent) error {
	if event.ID == "" {
		event.ID = ids.New()
	}
	fields, _ := json.Marshal(event.Fields)
	_, err := s.db.ExecContext(ctx,
		`insert into security_events(id, occurred_at, actor_id, actor_role, event_type, fields, request_id)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		event.ID, event.OccurredAt, event.ActorID, string(event.ActorRole), event.EventType, fields, event.RequestID,
	)
	return err
}
