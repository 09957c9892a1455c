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

func newInboxMock(t *testing.T) (*InboxRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewInboxRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

var inboxRows = []string{
	"segment_id", "application_id", "application_number", "application_type",
	"company_name", "division", "point", "staff_id", "staff_name", "start_time",
}

func TestDivisionInboxNormalizesAndFallsBack(t *testing.T) {
	repo, mock, cleanup := newInboxMock(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(inboxRows).
		AddRow(int64(1), int64(7), "GMP-2025-0001", "GMP Facility Clearance",
			"Unregistered Entity", "QMS", models.PointDDD, nil, "Unassigned", now)

	mock.ExpectQuery("SELECT .+ FROM timeline_segments s").
		WithArgs("QMS", models.PointDDD).
		WillReturnRows(rows)

	entries, err := repo.DivisionInbox(context.Background(), "qms", models.PointDDD)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Unregistered Entity", entries[0].CompanyName)
	assert.Equal(t, "Unassigned", entries[0].StaffName)
	assert.Nil(t, entries[0].StaffID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffInboxEmptyReturnsEmptySlice(t *testing.T) {
	repo, mock, cleanup := newInboxMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM timeline_segments s").
		WithArgs("u-staff-1").
		WillReturnRows(sqlmock.NewRows(inboxRows))

	entries, err := repo.StaffInbox(context.Background(), "u-staff-1")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
