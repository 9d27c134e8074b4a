// Package audit records authentication-relevant security events. Every
// event is attributed to the identity installed in the context by token
// validation or login; client-supplied attribution is never accepted.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/auth"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit
// correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Logger emits security events to the shared JSON log and appends them
// to the persistent event store.
type Logger struct {
	events auth.EventStore
	now    func() time.Time
}

// NewLogger constructs a Logger. A nil store keeps only the JSON line
// output, which is what tests and local runs use.
func NewLogger(events auth.EventStore) *Logger {
	return &Logger{events: events, now: time.Now}
}

// Event records one security event. If the context carries no
// authenticated identity the event is dropped silently: an event that
// cannot be attributed server-side is worth less than a forgeable one.
// All failures are swallowed; audit must never fail the primary request.
func (l *Logger) Event(ctx context.Context, eventType string, fields map[string]string) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return
	}

	event := &auth.SecurityEvent{
		OccurredAt: l.now().UTC(),
		ActorID:    identity.ID,
		ActorRole:  identity.Role,
		EventType:  eventType,
		Fields:     fields,
		RequestID:  requestIDFromContext(ctx),
	}

	l.emitLine(event)
	if l.events != nil {
		if err := l.events.Append(ctx, event); err != nil {
			obs.Warn("security event append failed", map[string]any{
				"event": eventType,
				"error": err.Error(),
			})
		}
	}
}

func (l *Logger) emitLine(event *auth.SecurityEvent) {
	entry := map[string]any{
		"ts":         event.OccurredAt.Format(time.RFC3339Nano),
		"type":       "audit",
		"event":      event.EventType,
		"actor_id":   event.ActorID,
		"actor_role": string(event.ActorRole),
	}
	if event.RequestID != "" {
		entry["request_id"] = event.RequestID
	}
	if len(event.Fields) > 0 {
		entry["fields"] = event.Fields
	} else {
		entry["fields"] = map[string]string{}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	obs.Logger().Println(string(data))
}
