package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/export"
	"github.com/regops/dossier-flow-api/pkg/jobs"
	"github.com/regops/dossier-flow-api/pkg/storage"
)

type reportStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkReady(ctx context.Context, id, filePath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string, completedAt time.Time) error
}

type performanceReader interface {
	AllStaffPerformance(ctx context.Context) ([]models.StaffPerformance, error)
}

type reportEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type reportFiles interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// ReportStatusView is the job status plus a signed download link once ready.
type ReportStatusView struct {
	Job         *models.ReportJob `json:"job"`
	DownloadURL string            `json:"downloadToken,omitempty"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
}

// ReportService generates reviewer performance reports asynchronously: the
// request records a job, a background worker aggregates closed segments and
// renders the file, and the status endpoint hands out a signed download link.
type ReportService struct {
	reports  reportStore
	segments performanceReader
	files    reportFiles
	queue    reportEnqueuer
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs the service. Attach the worker queue with
// SetQueue once its handler is bound to HandleJob.
func NewReportService(reports reportStore, segments performanceReader, files reportFiles, cfg config.ReportsConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:  reports,
		segments: segments,
		files:    files,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		signer:   storage.NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
		logger:   logger,
		now:      time.Now,
	}
}

// SetQueue wires the worker queue. Separate from the constructor because the
// queue's handler needs the service first.
func (s *ReportService) SetQueue(queue reportEnqueuer) {
	s.queue = queue
}

// Request records a report job and enqueues its generation.
func (s *ReportService) Request(ctx context.Context, format, requestedBy string) (*models.ReportJob, error) {
	parsed, err := parseReportFormat(format)
	if err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report generation is not enabled")
	}
	job := &models.ReportJob{
		Kind:        models.ReportKindQMSPerformance,
		Format:      parsed,
		Status:      models.ReportStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind), Payload: job.ID}); err != nil {
		reason := "queue unavailable"
		_ = s.reports.MarkFailed(ctx, job.ID, reason, s.now().UTC())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return job, nil
}

// Status returns the job state with a signed download link when ready.
func (s *ReportService) Status(ctx context.Context, id string) (*ReportStatusView, error) {
	job, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load report job")
	}
	view := &ReportStatusView{Job: job}
	if job.Status == models.ReportStatusReady && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err == nil {
			view.DownloadURL = token
			view.ExpiresAt = &expiresAt
		}
	}
	return view, nil
}

// OpenByToken validates a signed token and opens the generated file.
func (s *ReportService) OpenByToken(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file missing")
	}
	return file, relPath, nil
}

// HandleJob is the queue handler: it claims the job, aggregates performance
// data, renders the requested format and archives the file. Deterministic
// failures are recorded on the job instead of retried.
func (s *ReportService) HandleJob(ctx context.Context, queued jobs.Job) error {
	id, _ := queued.Payload.(string)
	if id == "" {
		id = queued.ID
	}
	if err := s.reports.MarkProcessing(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// already claimed or no longer pending
			return nil
		}
		return fmt.Errorf("claim report job: %w", err)
	}
	job, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load report job: %w", err)
	}

	rows, err := s.segments.AllStaffPerformance(ctx)
	if err != nil {
		return fmt.Errorf("aggregate performance: %w", err)
	}
	dataset := performanceDataset(rows)

	var document []byte
	var renderErr error
	switch job.Format {
	case models.ReportFormatPDF:
		document, renderErr = s.pdf.Render(dataset, "Reviewer Performance Report")
	default:
		document, renderErr = s.csv.Render(dataset)
	}
	if renderErr != nil {
		s.fail(ctx, id, renderErr)
		return nil
	}

	filename := fmt.Sprintf("%s.%s", id, strings.ToLower(string(job.Format)))
	path, err := s.files.Save(filename, document)
	if err != nil {
		s.fail(ctx, id, err)
		return nil
	}
	if err := s.reports.MarkReady(ctx, id, path, s.now().UTC()); err != nil {
		return fmt.Errorf("mark report ready: %w", err)
	}
	s.logger.Info("report generated",
		zap.String("job_id", id),
		zap.String("format", string(job.Format)),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func (s *ReportService) fail(ctx context.Context, id string, cause error) {
	s.logger.Error("report generation failed", zap.String("job_id", id), zap.Error(cause))
	if err := s.reports.MarkFailed(ctx, id, cause.Error(), s.now().UTC()); err != nil {
		s.logger.Error("failed to record report failure", zap.String("job_id", id), zap.Error(err))
	}
}

func performanceDataset(rows []models.StaffPerformance) export.Dataset {
	headers := []string{"Staff ID", "Name", "Division", "Closed Segments", "Total Hours", "Average Hours"}
	out := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		total := time.Duration(row.TotalSeconds * float64(time.Second))
		average := time.Duration(0)
		if row.ClosedSegments > 0 {
			average = total / time.Duration(row.ClosedSegments)
		}
		out.Rows = append(out.Rows, map[string]string{
			"Staff ID":        row.StaffID,
			"Name":            row.StaffName,
			"Division":        row.Division,
			"Closed Segments": fmt.Sprintf("%d", row.ClosedSegments),
			"Total Hours":     fmt.Sprintf("%.2f", total.Hours()),
			"Average Hours":   fmt.Sprintf("%.2f", average.Hours()),
		})
	}
	return out
}

func parseReportFormat(raw string) (models.ReportFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CSV":
		return models.ReportFormatCSV, nil
	case "PDF":
		return models.ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be CSV or PDF")
	}
}
