package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/auth"
)

type recordingStore struct {
	events []*auth.SecurityEvent
	err    error
}

func (r *recordingStore) Append(_ context.Context, event *auth.SecurityEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func TestEventDroppedWithoutIdentity(t *testing.T) {
	store := &recordingStore{}
	logger := NewLogger(store)

	logger.Event(context.Background(), "auth.login", map[string]string{"outcome": "success"})

	if len(store.events) != 0 {
		t.Fatalf("event without an authenticated identity must be dropped, got %d", len(store.events))
	}
}

func TestEventAttributedFromContext(t *testing.T) {
	store := &recordingStore{}
	logger := NewLogger(store)
	logger.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	ctx := auth.ContextWithIdentity(context.Background(), auth.Identity{
		ID:   "org-1",
		Name: "Croix Verte",
		Role: auth.RoleOrganization,
	})
	ctx = WithRequestID(ctx, "req-123")

	logger.Event(ctx, "report.claim", map[string]string{"report_id": "rep-9"})

	if len(store.events) != 1 {
		t.Fatalf("expected one event, got %d", len(store.events))
	}
	event := store.events[0]
	if event.ActorID != "org-1" || event.ActorRole != auth.RoleOrganization {
		t.Fatalf("attribution must come from context identity, got %+v", event)
	}
	if event.RequestID != "req-123" {
		t.Fatalf("request id not propagated: %q", event.RequestID)
	}
	if event.EventType != "report.claim" || event.Fields["report_id"] != "rep-9" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if event.OccurredAt != time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) {
		t.Fatalf("timestamp not taken from clock: %v", event.OccurredAt)
	}
}

func TestEventStoreFailureIsSwallowed(t *testing.T) {
	store := &recordingStore{err: errors.New("db down")}
	logger := NewLogger(store)

	ctx := auth.ContextWithIdentity(context.Background(), auth.Identity{ID: "adm-1", Role: auth.RoleAdmin})

	// Must not panic or surface the error.
	logger.Event(ctx, "auth.login", nil)
}

func TestEmptyEventTypeIgnored(t *testing.T) {
	store := &recordingStore{}
	logger := NewLogger(store)
	ctx := auth.ContextWithIdentity(context.Background(), auth.Identity{ID: "adm-1", Role: auth.RoleAdmin})

	logger.Event(ctx, "  ", nil)
	if len(store.events) != 0 {
		t.Fatalf("blank event type must be ignored")
	}
}

func TestNilStoreKeepsLogOnly(t *testing.T) {
	logger := NewLogger(nil)
	ctx := auth.ContextWithIdentity(context.Background(), auth.Identity{ID: "adm-1", Role: auth.RoleAdmin})

	// Line-only mode; must not panic.
	logger.Event(ctx, "auth.login", map[string]string{"outcome": "success"})
}

func TestWithRequestIDBlankIsNoop(t *testing.T) {
	ctx := WithRequestID(context.Background(), "   ")
	if got := requestIDFromContext(ctx); got != "" {
		t.Fatalf("blank request id must not be stored, got %q", got)
	}
}
