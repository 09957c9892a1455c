package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/regops/dossier-flow-api/internal/models"
)

// SegmentRepository serves read-side timeline segment queries for the SLA
// clock and performance projections. Segment writes go through
// WorkflowRepository.
type SegmentRepository struct {
	db *sqlx.DB
}

// NewSegmentRepository constructs the repository.
func NewSegmentRepository(db *sqlx.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

const segmentColumns = `id, application_id, staff_id, division, point, start_time, end_time, details`

// OpenByApplication returns all open segments for one application (oldest first).
func (r *SegmentRepository) OpenByApplication(ctx context.Context, appID int64) ([]models.TimelineSegment, error) {
	query := fmt.Sprintf(`SELECT %s FROM timeline_segments
	WHERE application_id = $1 AND end_time IS NULL
	ORDER BY start_time ASC`, segmentColumns)
	var segments []models.TimelineSegment
	if err := r.db.SelectContext(ctx, &segments, query, appID); err != nil {
		return nil, fmt.Errorf("list open segments: %w", err)
	}
	return segments, nil
}

// History returns every segment for one application, open and closed, in
// start order. Used by the timeline view.
func (r *SegmentRepository) History(ctx context.Context, appID int64) ([]models.TimelineSegment, error) {
	query := fmt.Sprintf(`SELECT %s FROM timeline_segments
	WHERE application_id = $1
	ORDER BY start_time ASC, id ASC`, segmentColumns)
	var segments []models.TimelineSegment
	if err := r.db.SelectContext(ctx, &segments, query, appID); err != nil {
		return nil, fmt.Errorf("list segment history: %w", err)
	}
	return segments, nil
}

// OpenByStaff returns open segments assigned to one reviewer.
func (r *SegmentRepository) OpenByStaff(ctx context.Context, staffID string) ([]models.TimelineSegment, error) {
	query := fmt.Sprintf(`SELECT %s FROM timeline_segments
	WHERE staff_id = $1 AND end_time IS NULL
	ORDER BY start_time ASC`, segmentColumns)
	var segments []models.TimelineSegment
	if err := r.db.SelectContext(ctx, &segments, query, staffID); err != nil {
		return nil, fmt.Errorf("list staff open segments: %w", err)
	}
	return segments, nil
}

// StaffPerformance aggregates closed segments per reviewer: count and total
// consumed seconds, joined with the reviewer name when registered.
func (r *SegmentRepository) StaffPerformance(ctx context.Context, staffID string) (*models.StaffPerformance, error) {
	const query = `SELECT s.staff_id,
	COALESCE(u.full_name, 'Unassigned') AS staff_name,
	COALESCE(u.division, '') AS division,
	COUNT(*) AS closed_segments,
	COALESCE(SUM(EXTRACT(EPOCH FROM (s.end_time - s.start_time))), 0) AS total_seconds
	FROM timeline_segments s
	LEFT JOIN users u ON u.id = s.staff_id
	WHERE s.staff_id = $1 AND s.end_time IS NOT NULL
	GROUP BY s.staff_id, u.full_name, u.division`
	var perf models.StaffPerformance
	if err := r.db.GetContext(ctx, &perf, query, staffID); err != nil {
		return nil, err
	}
	return &perf, nil
}

// AllStaffPerformance aggregates closed segments for every reviewer, for the
// performance report.
func (r *SegmentRepository) AllStaffPerformance(ctx context.Context) ([]models.StaffPerformance, error) {
	const query = `SELECT s.staff_id,
	COALESCE(u.full_name, 'Unassigned') AS staff_name,
	COALESCE(u.division, '') AS division,
	COUNT(*) AS closed_segments,
	COALESCE(SUM(EXTRACT(EPOCH FROM (s.end_time - s.start_time))), 0) AS total_seconds
	FROM timeline_segments s
	LEFT JOIN users u ON u.id = s.staff_id
	WHERE s.staff_id IS NOT NULL AND s.end_time IS NOT NULL
	GROUP BY s.staff_id, u.full_name, u.division
	ORDER BY staff_name ASC`
	var rows []models.StaffPerformance
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("aggregate staff performance: %w", err)
	}
	return rows, nil
}
