// Package reports is the slice of the report store the auth boundary
// exercises: assignment of an incident report to exactly one
// organization. The conditional update here is the sole serialization
// point for concurrent claims; the auth layer only vouches that the
// caller was a live, approved organization at call time.
package reports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("reports: not found")
	ErrAlreadyClaimed = errors.New("reports: report already claimed")
)

// Report is a citizen-submitted incident report.
type Report struct {
	ID                     string
	Description            string
	Status                 string
	AssignedOrganizationID string
	CreatedAt              time.Time
}

// Store describes the report persistence operations the auth service's
// collaborators need.
type Store interface {
	Find(ctx context.Context, id string) (*Report, error)
	// Claim atomically assigns an unassigned report to the organization.
	// Exactly one of any set of concurrent claims succeeds; the others
	// receive ErrAlreadyClaimed and observe no effect.
	Claim(ctx context.Context, reportID, orgID string) (*Report, error)
}
