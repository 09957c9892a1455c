package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/jobs"
	"github.com/regops/dossier-flow-api/pkg/storage"
)

type stubReportStore struct {
	jobsByID map[string]*models.ReportJob
}

func newStubReportStore() *stubReportStore {
	return &stubReportStore{jobsByID: make(map[string]*models.ReportJob)}
}

func (s *stubReportStore) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.jobsByID[job.ID] = job
	return nil
}

func (s *stubReportStore) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.jobsByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (s *stubReportStore) MarkProcessing(_ context.Context, id string) error {
	job, ok := s.jobsByID[id]
	if !ok || job.Status != models.ReportStatusPending {
		return sql.ErrNoRows
	}
	job.Status = models.ReportStatusProcessing
	return nil
}

func (s *stubReportStore) MarkReady(_ context.Context, id, filePath string, completedAt time.Time) error {
	job := s.jobsByID[id]
	job.Status = models.ReportStatusReady
	job.FilePath = &filePath
	job.CompletedAt = &completedAt
	return nil
}

func (s *stubReportStore) MarkFailed(_ context.Context, id, reason string, completedAt time.Time) error {
	job := s.jobsByID[id]
	job.Status = models.ReportStatusFailed
	job.Error = &reason
	job.CompletedAt = &completedAt
	return nil
}

type stubPerformanceReader struct {
	rows []models.StaffPerformance
}

func (s *stubPerformanceReader) AllStaffPerformance(context.Context) ([]models.StaffPerformance, error) {
	return s.rows, nil
}

type stubQueue struct {
	enqueued []jobs.Job
}

func (s *stubQueue) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

var reportsCfg = config.ReportsConfig{
	Enabled:         true,
	SignedURLSecret: "report-secret",
	SignedURLTTL:    time.Hour,
}

func newTestReportService(t *testing.T) (*ReportService, *stubReportStore, *stubQueue) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := newStubReportStore()
	segments := &stubPerformanceReader{rows: []models.StaffPerformance{
		{StaffID: "u-staff-1", StaffName: "Jordan Reviewer", Division: "QMS", ClosedSegments: 4, TotalSeconds: 4 * 3600},
	}}
	svc := NewReportService(store, segments, files, reportsCfg, nil)
	queue := &stubQueue{}
	svc.SetQueue(queue)
	return svc, store, queue
}

func TestRequestEnqueuesPendingJob(t *testing.T) {
	svc, store, queue := newTestReportService(t)

	job, err := svc.Request(context.Background(), "csv", "u-dir")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, job.Status)
	assert.Equal(t, models.ReportFormatCSV, job.Format)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
	assert.Contains(t, store.jobsByID, job.ID)
}

func TestRequestRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newTestReportService(t)
	_, err := svc.Request(context.Background(), "xlsx", "u-dir")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHandleJobGeneratesCSVAndSignsDownload(t *testing.T) {
	svc, store, _ := newTestReportService(t)
	job, err := svc.Request(context.Background(), "CSV", "u-dir")
	require.NoError(t, err)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	stored := store.jobsByID[job.ID]
	assert.Equal(t, models.ReportStatusReady, stored.Status)
	require.NotNil(t, stored.FilePath)

	view, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, view.DownloadURL)

	file, name, err := svc.OpenByToken(view.DownloadURL)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	assert.Contains(t, name, job.ID)
}

func TestHandleJobSkipsAlreadyClaimedJobs(t *testing.T) {
	svc, store, _ := newTestReportService(t)
	job, err := svc.Request(context.Background(), "PDF", "u-dir")
	require.NoError(t, err)
	store.jobsByID[job.ID].Status = models.ReportStatusProcessing

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))
	assert.Equal(t, models.ReportStatusProcessing, store.jobsByID[job.ID].Status)
}

func TestStatusUnknownJobIsNotFound(t *testing.T) {
	svc, _, _ := newTestReportService(t)
	_, err := svc.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
