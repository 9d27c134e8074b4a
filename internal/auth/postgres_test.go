package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCreateLoginPairCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	tok := &RefreshToken{
		ID: "rt-1", UserID: "org-1", Role: RoleOrganization,
		SecretHash: "hash-a", IssuedAt: now, ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	sess := &Session{
		ID: "sess-1", UserID: "org-1", Role: RoleOrganization,
		SecretHash: "hash-b", RefreshTokenID: "rt-1", ExpiresAt: now.Add(7 * 24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectExec("insert into refresh_tokens").
		WithArgs(tok.ID, tok.UserID, "organization", tok.SecretHash, tok.IssuedAt, tok.ExpiresAt, "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into sessions").
		WithArgs(sess.ID, sess.UserID, "organization", sess.SecretHash, sess.RefreshTokenID, sess.ExpiresAt, "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	if err := store.CreateLoginPair(context.Background(), tok, sess); err != nil {
		t.Fatalf("CreateLoginPair: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateLoginPairRollsBackOnSessionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	tok := &RefreshToken{ID: "rt-1", UserID: "org-1", Role: RoleOrganization, SecretHash: "h", IssuedAt: now, ExpiresAt: now}
	sess := &Session{ID: "sess-1", UserID: "org-1", Role: RoleOrganization, SecretHash: "h", RefreshTokenID: "rt-1", ExpiresAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("insert into refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into sessions").
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	store := NewPGStore(db)
	if err := store.CreateLoginPair(context.Background(), tok, sess); err == nil {
		t.Fatalf("expected error when session insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAdminFindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "username", "email", "status", "password_hash", "created_at"}).
		AddRow("adm-1", "Root", "root", "root@example.sn", "active", "$2a$10$abc", created)
	mock.ExpectQuery("select (.+) from admins where username=").
		WithArgs("root").
		WillReturnRows(rows)

	admin, err := NewPGStore(db).Admins(context.Background()).FindByUsername(context.Background(), "root")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if admin.ID != "adm-1" || admin.Status != "active" || !admin.CreatedAt.Equal(created) {
		t.Fatalf("unexpected admin: %+v", admin)
	}
}

func TestAdminFindByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select (.+) from admins where username=").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "email", "status", "password_hash", "created_at"}))

	_, err = NewPGStore(db).Admins(context.Background()).FindByUsername(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrganizationFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "email", "status", "is_active", "password_hash", "created_at"}).
		AddRow("org-1", "Croix Verte", "a@b.com", "approved", true, "$2a$10$abc", created)
	mock.ExpectQuery("select (.+) from organizations where email=").
		WithArgs("a@b.com").
		WillReturnRows(rows)

	org, err := NewPGStore(db).Organizations(context.Background()).FindByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if !org.Active() {
		t.Fatalf("approved + is_active organization should be active: %+v", org)
	}
}

func TestSessionFindAndRevoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expires := time.Now().UTC().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "role", "secret_hash", "refresh_token_id", "expires_at", "client_ip", "user_agent", "revoked"}).
		AddRow("sess-1", "org-1", "organization", "hash", "rt-1", expires, "10.0.0.1", "ua", false)
	mock.ExpectQuery("from sessions where id=").
		WithArgs("sess-1").
		WillReturnRows(rows)
	mock.ExpectExec("update sessions set revoked=true").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	sess, err := store.Sessions(context.Background()).Find(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if sess.Role != RoleOrganization || sess.RefreshTokenID != "rt-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if err := store.Sessions(context.Background()).MarkRevoked(context.Background(), "sess-1"); err != nil {
		t.Fatalf("MarkRevoked: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEventAppendAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into security_events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &SecurityEvent{
		OccurredAt: time.Now().UTC(),
		ActorID:    "adm-1",
		ActorRole:  RoleAdmin,
		EventType:  "auth.login",
		Fields:     map[string]string{"outcome": "success"},
	}
	if err := NewPGStore(db).Events(context.Background()).Append(context.Background(), event); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if event.ID == "" {
		t.Fatalf("event ID not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
