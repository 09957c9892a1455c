package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regops/dossier-flow-api/internal/models"
)

func newSegmentMock(t *testing.T) (*SegmentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewSegmentRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestOpenByApplication(t *testing.T) {
	repo, mock, cleanup := newSegmentMock(t)
	defer cleanup()

	now := time.Now().UTC()
	staffID := "u-staff-1"
	rows := sqlmock.NewRows([]string{"id", "application_id", "staff_id", "division", "point", "start_time", "end_time", "details"}).
		AddRow(int64(1), int64(7), &staffID, "QMS", models.PointTechnicalReview, now, nil, []byte(`{"iteration":2}`))

	mock.ExpectQuery("SELECT .+ FROM timeline_segments").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	segments, err := repo.OpenByApplication(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.True(t, segments[0].Open())
	assert.Equal(t, 2, segments[0].Details.Iteration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllStaffPerformanceAggregates(t *testing.T) {
	repo, mock, cleanup := newSegmentMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"staff_id", "staff_name", "division", "closed_segments", "total_seconds"}).
		AddRow("u-staff-1", "Jordan Reviewer", "QMS", 4, float64(4*3600)).
		AddRow("u-staff-2", "Unassigned", "", 1, float64(1800))

	mock.ExpectQuery("SELECT s.staff_id").
		WillReturnRows(rows)

	perf, err := repo.AllStaffPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, 4, perf[0].ClosedSegments)
	assert.Equal(t, float64(14400), perf[0].TotalSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
