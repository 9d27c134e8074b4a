package reports

import (
	"context"
	"database/sql"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const reportColumns = `id, description, status, coalesce(assigned_organization_id, ''), created_at`

func (s *PGStore) Find(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+reportColumns+` from reports where id=$1`, id)
	return scanReport(row)
}

// Claim relies on the database as the single arbiter: the UPDATE only
// matches while assigned_organization_id is still null, so concurrent
// claimers race on one row version and the loser affects zero rows.
func (s *PGStore) Claim(ctx context.Context, reportID, orgID string) (*Report, error) {
	res, err := s.db.ExecContext(ctx,
		`update reports
		    set assigned_organization_id=$1, status='assigned'
		  where id=$2 and assigned_organization_id is null`,
		orgID, reportID,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Distinguish a lost race from a missing report.
		if _, err := s.Find(ctx, reportID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyClaimed
	}
	return s.Find(ctx, reportID)
}

func scanReport(row *sql.Row) (*Report, error) {
	var r Report
	if err := row.Scan(&r.ID, &r.Description, &r.Status, &r.AssignedOrganizationID, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
