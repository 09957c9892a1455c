package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type applicationReader interface {
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetByNumber(ctx context.Context, number string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
}

type segmentReader interface {
	OpenByApplication(ctx context.Context, appID int64) ([]models.TimelineSegment, error)
	History(ctx context.Context, appID int64) ([]models.TimelineSegment, error)
}

// ApplicationService serves the read side of the dossier: detail views,
// listings, the comment trail and the segment timeline.
type ApplicationService struct {
	apps     applicationReader
	segments segmentReader
	logger   *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(apps applicationReader, segments segmentReader, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{apps: apps, segments: segments, logger: logger}
}

// Get returns the dossier with its reconciled summary point, open clocks and
// outstanding findings.
func (s *ApplicationService) Get(ctx context.Context, id int64) (*dto.ApplicationDetail, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, "application not found")
	}
	open, err := s.segments.OpenByApplication(ctx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load open segments")
	}
	return &dto.ApplicationDetail{
		Application:    app,
		EffectivePoint: models.SummarizePoint(open),
		OpenSegments:   open,
		Outstanding:    models.LatestObservations(app.Details.Comments),
	}, nil
}

// GetByNumber resolves a dossier by its human-readable number.
func (s *ApplicationService) GetByNumber(ctx context.Context, number string) (*dto.ApplicationDetail, error) {
	app, err := s.apps.GetByNumber(ctx, number)
	if err != nil {
		return nil, mapReadError(err, "application not found")
	}
	return s.Get(ctx, app.ID)
}

// List returns dossiers matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	apps, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list applications")
	}
	return apps, nil
}

// Trail returns the append-only comment trail, oldest first.
func (s *ApplicationService) Trail(ctx context.Context, id int64) ([]models.Comment, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, "application not found")
	}
	if app.Details.Comments == nil {
		return []models.Comment{}, nil
	}
	return app.Details.Comments, nil
}

// Timeline returns every segment, open and closed, in start order.
func (s *ApplicationService) Timeline(ctx context.Context, id int64) ([]models.TimelineSegment, error) {
	if _, err := s.apps.GetByID(ctx, id); err != nil {
		return nil, mapReadError(err, "application not found")
	}
	segments, err := s.segments.History(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load timeline")
	}
	if segments == nil {
		segments = []models.TimelineSegment{}
	}
	return segments, nil
}

func mapReadError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "storage read failed")
}
