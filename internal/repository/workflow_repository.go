package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/regops/dossier-flow-api/internal/models"
)

// ErrDuplicateOpenSegment is returned when an insert would create a second
// open segment for the same (application, division, point). The partial unique
// index raises it under concurrent writers; the engine surfaces it as a
// conflict instead of patching state after the fact.
var ErrDuplicateOpenSegment = errors.New("duplicate open timeline segment")

// openSegmentIndexName matches migrations/0001_schema.sql.
const openSegmentIndexName = "timeline_segments_open_unique"

// WorkflowTx exposes the storage operations available inside one workflow
// transaction. All three-part transition effects (close segment, open segment,
// update application) run through this so they commit or roll back together.
type WorkflowTx interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error)
	UpdateApplicationState(ctx context.Context, app *models.Application) error
	OpenSegment(ctx context.Context, seg *models.TimelineSegment) error
	CloseSegment(ctx context.Context, params CloseSegmentParams) error
	FindOpenSegment(ctx context.Context, appID int64, division, point string) (*models.TimelineSegment, error)
	OpenSegments(ctx context.Context, appID int64) ([]models.TimelineSegment, error)
	LatestClosedSegment(ctx context.Context, appID int64, division, point string) (*models.TimelineSegment, error)
}

// CloseSegmentParams groups the mutable columns set when a clock stops. The
// same row is updated in place; Point is only overridden for transitions that
// annotate the closing desk (e.g. "Assigned to Staff", "Certificate Issued").
type CloseSegmentParams struct {
	SegmentID int64
	EndTime   time.Time
	Point     string
	Details   models.SegmentDetails
}

// WorkflowRepository is the single write boundary for workflow state. Reads
// outside a transition go through the read-side repositories instead.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Transact runs fn inside a database transaction. Concurrent transitions on
// the same application serialize on the row lock taken by
// GetApplicationForUpdate.
func (r *WorkflowRepository) Transact(ctx context.Context, fn func(tx WorkflowTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin workflow transaction: %w", err)
	}
	if err := fn(&workflowTx{tx: tx}); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workflow transaction: %w", err)
	}
	return nil
}

type workflowTx struct {
	tx *sqlx.Tx
}

func (t *workflowTx) CreateApplication(ctx context.Context, app *models.Application) error {
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	const query = `INSERT INTO applications
	(application_number, type, company_id, current_point, risk_category, status, details, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`
	if err := t.tx.QueryRowxContext(ctx, query,
		app.ApplicationNumber, app.Type, app.CompanyID, app.CurrentPoint,
		app.RiskCategory, app.Status, app.Details, app.CreatedAt, app.UpdatedAt,
	).Scan(&app.ID); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (t *workflowTx) GetApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error) {
	const query = `SELECT id, application_number, type, company_id, current_point, risk_category, status, details, created_at, updated_at
	FROM applications WHERE id = $1 FOR UPDATE`
	var app models.Application
	if err := t.tx.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

func (t *workflowTx) UpdateApplicationState(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications
	SET current_point = $2, status = $3, details = $4, updated_at = $5
	WHERE id = $1`
	result, err := t.tx.ExecContext(ctx, query, app.ID, app.CurrentPoint, app.Status, app.Details, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update application state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *workflowTx) OpenSegment(ctx context.Context, seg *models.TimelineSegment) error {
	if seg.StartTime.IsZero() {
		seg.StartTime = time.Now().UTC()
	}
	seg.Division = models.NormalizeDivision(seg.Division)
	const query = `INSERT INTO timeline_segments
	(application_id, staff_id, division, point, start_time, details)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	if err := t.tx.QueryRowxContext(ctx, query,
		seg.ApplicationID, seg.StaffID, seg.Division, seg.Point, seg.StartTime, seg.Details,
	).Scan(&seg.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == openSegmentIndexName {
			return ErrDuplicateOpenSegment
		}
		return fmt.Errorf("open timeline segment: %w", err)
	}
	return nil
}

func (t *workflowTx) CloseSegment(ctx context.Context, params CloseSegmentParams) error {
	if params.EndTime.IsZero() {
		params.EndTime = time.Now().UTC()
	}
	const query = `UPDATE timeline_segments
	SET end_time = $2, point = COALESCE(NULLIF($3, ''), point), details = $4
	WHERE id = $1 AND end_time IS NULL`
	result, err := t.tx.ExecContext(ctx, query, params.SegmentID, params.EndTime, params.Point, params.Details)
	if err != nil {
		return fmt.Errorf("close timeline segment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check segment close rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *workflowTx) FindOpenSegment(ctx context.Context, appID int64, division, point string) (*models.TimelineSegment, error) {
	const query = `SELECT id, application_id, staff_id, division, point, start_time, end_time, details
	FROM timeline_segments
	WHERE application_id = $1 AND UPPER(division) = $2 AND point = $3 AND end_time IS NULL`
	var seg models.TimelineSegment
	if err := t.tx.GetContext(ctx, &seg, query, appID, models.NormalizeDivision(division), point); err != nil {
		return nil, err
	}
	return &seg, nil
}

func (t *workflowTx) OpenSegments(ctx context.Context, appID int64) ([]models.TimelineSegment, error) {
	const query = `SELECT id, application_id, staff_id, division, point, start_time, end_time, details
	FROM timeline_segments
	WHERE application_id = $1 AND end_time IS NULL
	ORDER BY start_time ASC`
	var segments []models.TimelineSegment
	if err := t.tx.SelectContext(ctx, &segments, query, appID); err != nil {
		return nil, fmt.Errorf("list open segments: %w", err)
	}
	return segments, nil
}

func (t *workflowTx) LatestClosedSegment(ctx context.Context, appID int64, division, point string) (*models.TimelineSegment, error) {
	const query = `SELECT id, application_id, staff_id, division, point, start_time, end_time, details
	FROM timeline_segments
	WHERE application_id = $1 AND UPPER(division) = $2 AND point = $3 AND end_time IS NOT NULL
	ORDER BY end_time DESC
	LIMIT 1`
	var seg models.TimelineSegment
	if err := t.tx.GetContext(ctx, &seg, query, appID, models.NormalizeDivision(division), point); err != nil {
		return nil, err
	}
	return &seg, nil
}
