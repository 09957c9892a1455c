package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regops/dossier-flow-api/internal/models"
)

func newWorkflowMock(t *testing.T) (*WorkflowRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewWorkflowRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestTransactCommitsOnSuccess(t *testing.T) {
	repo, mock, cleanup := newWorkflowMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO timeline_segments").
		WithArgs(int64(7), nil, "QMS", models.PointDDD, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx WorkflowTx) error {
		seg := &models.TimelineSegment{
			ApplicationID: 7,
			Division:      "qms",
			Point:         models.PointDDD,
			StartTime:     time.Now().UTC(),
		}
		if err := tx.OpenSegment(context.Background(), seg); err != nil {
			return err
		}
		assert.Equal(t, int64(11), seg.ID)
		assert.Equal(t, "QMS", seg.Division)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactRollsBackOnError(t *testing.T) {
	repo, mock, cleanup := newWorkflowMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("boom")
	err := repo.Transact(context.Background(), func(tx WorkflowTx) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSegmentMapsDuplicateToSentinel(t *testing.T) {
	repo, mock, cleanup := newWorkflowMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO timeline_segments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "timeline_segments_open_unique"})
	mock.ExpectRollback()

	err := repo.Transact(context.Background(), func(tx WorkflowTx) error {
		return tx.OpenSegment(context.Background(), &models.TimelineSegment{
			ApplicationID: 7,
			Division:      "QMS",
			Point:         models.PointDDD,
			StartTime:     time.Now().UTC(),
		})
	})
	assert.ErrorIs(t, err, ErrDuplicateOpenSegment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseSegmentAlreadyClosed(t *testing.T) {
	repo, mock, cleanup := newWorkflowMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE timeline_segments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Transact(context.Background(), func(tx WorkflowTx) error {
		return tx.CloseSegment(context.Background(), CloseSegmentParams{
			SegmentID: 11,
			EndTime:   time.Now().UTC(),
		})
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOpenSegmentComparesDivisionCaseInsensitively(t *testing.T) {
	repo, mock, cleanup := newWorkflowMock(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "application_id", "staff_id", "division", "point", "start_time", "end_time", "details"}).
		AddRow(int64(11), int64(7), nil, "Qms", models.PointDDD, now, nil, []byte(`{}`))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM timeline_segments").
		WithArgs(int64(7), "QMS", models.PointDDD).
		WillReturnRows(rows)
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx WorkflowTx) error {
		seg, err := tx.FindOpenSegment(context.Background(), 7, "qms", models.PointDDD)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(11), seg.ID)
		assert.True(t, seg.Open())
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
