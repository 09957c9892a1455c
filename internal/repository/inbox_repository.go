package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/regops/dossier-flow-api/internal/models"
)

// InboxRepository answers "what is pending for division X / reviewer Y"
// projections. Pure reads: it never mutates state, and zero matches is an
// empty slice, not an error.
type InboxRepository struct {
	db *sqlx.DB
}

// NewInboxRepository constructs the repository.
func NewInboxRepository(db *sqlx.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

const inboxColumns = `s.id AS segment_id,
	a.id AS application_id,
	a.application_number,
	a.type AS application_type,
	COALESCE(c.name, 'Unregistered Entity') AS company_name,
	s.division,
	s.point,
	s.staff_id,
	COALESCE(u.full_name, 'Unassigned') AS staff_name,
	s.start_time`

// DivisionInbox lists open segments for a division at a stage. Division
// comparison is case-insensitive: historical rows were written in mixed case.
func (r *InboxRepository) DivisionInbox(ctx context.Context, division, point string) ([]models.InboxEntry, error) {
	query := fmt.Sprintf(`SELECT %s
	FROM timeline_segments s
	JOIN applications a ON a.id = s.application_id
	LEFT JOIN companies c ON c.id = a.company_id
	LEFT JOIN users u ON u.id = s.staff_id
	WHERE s.end_time IS NULL AND UPPER(s.division) = $1 AND s.point = $2
	ORDER BY s.start_time ASC`, inboxColumns)
	entries := make([]models.InboxEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, models.NormalizeDivision(division), point); err != nil {
		return nil, fmt.Errorf("query division inbox: %w", err)
	}
	return entries, nil
}

// StaffInbox lists open segments assigned to one reviewer.
func (r *InboxRepository) StaffInbox(ctx context.Context, staffID string) ([]models.InboxEntry, error) {
	query := fmt.Sprintf(`SELECT %s
	FROM timeline_segments s
	JOIN applications a ON a.id = s.application_id
	LEFT JOIN companies c ON c.id = a.company_id
	LEFT JOIN users u ON u.id = s.staff_id
	WHERE s.end_time IS NULL AND s.staff_id = $1
	ORDER BY s.start_time ASC`, inboxColumns)
	entries := make([]models.InboxEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, staffID); err != nil {
		return nil, fmt.Errorf("query staff inbox: %w", err)
	}
	return entries, nil
}
