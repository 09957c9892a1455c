package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type openSegmentReader interface {
	OpenByApplication(ctx context.Context, appID int64) ([]models.TimelineSegment, error)
	OpenByStaff(ctx context.Context, staffID string) ([]models.TimelineSegment, error)
}

type breachObserver interface {
	ObserveSLABreach(point string)
}

// SLAService derives review-budget clocks from open timeline segments. Breach
// is advisory: a breached clock flags urgency on dashboards but never blocks a
// transition.
type SLAService struct {
	segments openSegmentReader
	cfg      config.SLAConfig
	logger   *zap.Logger
	observer breachObserver
	now      func() time.Time
}

// NewSLAService constructs the service.
func NewSLAService(segments openSegmentReader, cfg config.SLAConfig, logger *zap.Logger) *SLAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{segments: segments, cfg: cfg, logger: logger, now: time.Now}
}

// SetObserver attaches a metrics sink for breached clocks.
func (s *SLAService) SetObserver(obs breachObserver) {
	s.observer = obs
}

// BudgetFor returns the review budget for a workflow point.
func (s *SLAService) BudgetFor(point string) time.Duration {
	switch point {
	case models.PointTechnicalReview:
		return s.cfg.TechnicalReview
	case models.PointDDD, models.PointDDDReturn:
		return s.cfg.DeputyDirector
	case models.PointDirector, models.PointDirectorFinal:
		return s.cfg.Director
	default:
		return s.cfg.Default
	}
}

// Clocks returns one SLA clock per open segment of the application.
func (s *SLAService) Clocks(ctx context.Context, appID int64) ([]models.SLAClock, error) {
	segments, err := s.segments.OpenByApplication(ctx, appID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load open segments")
	}
	return s.clocksFor(segments), nil
}

// StaffClocks returns the SLA clocks for a reviewer's open workload.
func (s *SLAService) StaffClocks(ctx context.Context, staffID string) ([]models.SLAClock, error) {
	segments, err := s.segments.OpenByStaff(ctx, staffID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load staff segments")
	}
	return s.clocksFor(segments), nil
}

// ClockFor computes a single clock without a storage round trip, for callers
// that already hold the segment fields.
func (s *SLAService) ClockFor(segmentID, appID int64, division, point string, staffID *string, start time.Time) models.SLAClock {
	budget := s.BudgetFor(point)
	elapsed := s.now().UTC().Sub(start)
	remaining := budget - elapsed
	breached := remaining < 0
	if breached {
		remaining = 0
		if s.observer != nil {
			s.observer.ObserveSLABreach(point)
		}
	}
	return models.SLAClock{
		SegmentID:     segmentID,
		ApplicationID: appID,
		Division:      division,
		Point:         point,
		StaffID:       staffID,
		StartTime:     start,
		Budget:        budget,
		Elapsed:       elapsed,
		Remaining:     remaining,
		Breached:      breached,
	}
}

func (s *SLAService) clocksFor(segments []models.TimelineSegment) []models.SLAClock {
	clocks := make([]models.SLAClock, 0, len(segments))
	for _, seg := range segments {
		clocks = append(clocks, s.ClockFor(seg.ID, seg.ApplicationID, seg.Division, seg.Point, seg.StaffID, seg.StartTime))
	}
	return clocks
}
