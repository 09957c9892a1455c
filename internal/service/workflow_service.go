package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/internal/repository"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type workflowStore interface {
	Transact(ctx context.Context, fn func(tx repository.WorkflowTx) error) error
}

type directoryResolver interface {
	ResolveDivisionDDD(ctx context.Context, division string) (*models.User, error)
}

// CertificateIssuer renders and stores the clearance certificate, returning
// the archived path. The engine only records the path; it never interprets
// document content.
type CertificateIssuer interface {
	Issue(ctx context.Context, app *models.Application, remarks string, actor models.Identity) (string, error)
}

type transitionObserver interface {
	ObserveWorkflowTransition(action, outcome string)
}

// WorkflowService is the state machine driving a dossier through intake,
// triage, divisional review and final clearance. Every action receives the
// acting identity explicitly and commits its close-segment / open-segment /
// update-application effects in one transaction.
type WorkflowService struct {
	store     workflowStore
	directory directoryResolver
	certs     CertificateIssuer
	metrics   transitionObserver
	cfg       config.WorkflowConfig
	logger    *zap.Logger
	now       func() time.Time
}

// WorkflowServiceOption configures the service.
type WorkflowServiceOption func(*WorkflowService)

// WithCertificateIssuer attaches the clearance certificate collaborator.
func WithCertificateIssuer(issuer CertificateIssuer) WorkflowServiceOption {
	return func(s *WorkflowService) { s.certs = issuer }
}

// WithTransitionObserver attaches workflow metrics.
func WithTransitionObserver(obs transitionObserver) WorkflowServiceOption {
	return func(s *WorkflowService) { s.metrics = obs }
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) WorkflowServiceOption {
	return func(s *WorkflowService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewWorkflowService constructs the engine.
func NewWorkflowService(store workflowStore, directory directoryResolver, cfg config.WorkflowConfig, logger *zap.Logger, opts ...WorkflowServiceOption) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &WorkflowService{
		store:     store,
		directory: directory,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// clockTimes returns the instant a closing segment stops and the strictly
// later instant its successor starts.
func (s *WorkflowService) clockTimes() (closeAt, openAt time.Time) {
	closeAt = s.now().UTC()
	return closeAt, closeAt.Add(time.Millisecond)
}

func (s *WorkflowService) observe(action string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.ObserveWorkflowTransition(action, outcome)
}

// transition loads the application under a row lock, applies fn and persists
// the resulting state. Concurrent actions on the same application serialize
// here; a mid-sequence failure rolls every effect back.
func (s *WorkflowService) transition(ctx context.Context, action string, appID int64, fn func(tx repository.WorkflowTx, app *models.Application) error) (*models.Application, error) {
	var app *models.Application
	err := s.store.Transact(ctx, func(tx repository.WorkflowTx) error {
		loaded, err := tx.GetApplicationForUpdate(ctx, appID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "application not found")
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load application")
		}
		if err := fn(tx, loaded); err != nil {
			return err
		}
		if err := tx.UpdateApplicationState(ctx, loaded); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update application")
		}
		app = loaded
		return nil
	})
	s.observe(action, err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("workflow transition",
		zap.String("action", action),
		zap.Int64("application_id", app.ID),
		zap.String("current_point", app.CurrentPoint),
		zap.String("status", app.Status),
	)
	return app, nil
}

// Intake registers a new dossier: the application record is created at the
// Director triage point with one seed LOD comment and one open intake clock.
func (s *WorkflowService) Intake(ctx context.Context, req dto.IntakeRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.ApplicationNumber) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "application number is required")
		s.observe("intake", err)
		return nil, err
	}
	if strings.TrimSpace(req.Type) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "application type is required")
		s.observe("intake", err)
		return nil, err
	}

	now := s.now().UTC()
	divisions := normalizeDivisions(req.Divisions)
	app := &models.Application{
		ApplicationNumber: strings.TrimSpace(req.ApplicationNumber),
		Type:              req.Type,
		CurrentPoint:      models.PointDirector,
		Status:            models.StatusPendingDirector,
		Details: models.ApplicationDetails{
			Inputs: models.IntakeInputs{
				FacilityName:    req.FacilityName,
				FacilityAddress: req.FacilityAddress,
				DocumentURLs:    req.DocumentURLs,
			},
			AssignedDivisions: divisions,
		},
	}
	if req.CompanyID != "" {
		app.CompanyID = &req.CompanyID
	}
	if req.RiskCategory != "" {
		app.RiskCategory = &req.RiskCategory
	}
	text := req.Remarks
	if text == "" {
		text = "Dossier registered at intake"
	}
	app.AppendComment(models.NewIntakeComment(actor, text, now))

	err := s.store.Transact(ctx, func(tx repository.WorkflowTx) error {
		if err := tx.CreateApplication(ctx, app); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create application")
		}
		seg := &models.TimelineSegment{
			ApplicationID: app.ID,
			Division:      models.DivisionLOD,
			Point:         models.PointDirector,
			StartTime:     now,
			Details:       models.SegmentDetails{Notes: text},
		}
		if err := tx.OpenSegment(ctx, seg); err != nil {
			return wrapSegmentError(err, "failed to open intake segment")
		}
		return nil
	})
	s.observe("intake", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dossier registered",
		zap.Int64("application_id", app.ID),
		zap.String("application_number", app.ApplicationNumber),
	)
	return app, nil
}

// PushToDivisions moves a triaged dossier into divisional review: the intake
// clock closes and one deputy director clock opens per selected division.
func (s *WorkflowService) PushToDivisions(ctx context.Context, appID int64, req dto.PushToDivisionsRequest, actor models.Identity) (*models.Application, error) {
	divisions := normalizeDivisions(req.Divisions)
	if len(divisions) == 0 {
		err := appErrors.Clone(appErrors.ErrValidation, "at least one division is required")
		s.observe("push_to_divisions", err)
		return nil, err
	}

	return s.transition(ctx, "push_to_divisions", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, models.DivisionLOD, models.PointDirector)
		if err != nil {
			return segmentLookupError(err, "no open intake segment for this application")
		}
		closeAt, openAt := s.clockTimes()
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Details:   models.SegmentDetails{Outcome: models.OutcomePushedToDivisions, Notes: req.Remarks},
		}); err != nil {
			return wrapSegmentError(err, "failed to close intake segment")
		}
		for _, division := range divisions {
			next := &models.TimelineSegment{
				ApplicationID: appID,
				Division:      division,
				Point:         models.PointDDD,
				StartTime:     openAt,
			}
			if err := tx.OpenSegment(ctx, next); err != nil {
				return wrapSegmentError(err, "failed to open deputy director segment")
			}
		}
		app.Details.AssignedDivisions = divisions
		app.AppendComment(models.NewPushComment(actor, pushText(req.Remarks, divisions), closeAt))
		app.CurrentPoint = models.PointDDD
		app.Status = models.StatusUnderReview
		return nil
	})
}

// AssignStaff hands a divisional dossier to a technical reviewer. The deputy
// director clock for that division closes (annotated "Assigned to Staff") and
// the reviewer's technical review clock opens. Other divisions are untouched.
func (s *WorkflowService) AssignStaff(ctx context.Context, appID int64, req dto.AssignStaffRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.StaffID) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "staff id is required")
		s.observe("assign_staff", err)
		return nil, err
	}
	if strings.TrimSpace(req.Division) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "division is required")
		s.observe("assign_staff", err)
		return nil, err
	}
	division := models.NormalizeDivision(req.Division)
	staffID := strings.TrimSpace(req.StaffID)

	return s.transition(ctx, "assign_staff", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, division, models.PointDDD)
		if err != nil {
			return segmentLookupError(err, fmt.Sprintf("no open deputy director segment for division %s", division))
		}
		closeAt, openAt := s.clockTimes()
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Point:     models.PointAssignedToStaff,
			Details:   models.SegmentDetails{Notes: req.Remarks},
		}); err != nil {
			return wrapSegmentError(err, "failed to close deputy director segment")
		}
		next := &models.TimelineSegment{
			ApplicationID: appID,
			Division:      division,
			Point:         models.PointTechnicalReview,
			StaffID:       &staffID,
			StartTime:     openAt,
		}
		if err := tx.OpenSegment(ctx, next); err != nil {
			return wrapSegmentError(err, "failed to open technical review segment")
		}
		app.AppendComment(models.NewAssignmentComment(actor, fmt.Sprintf("Assigned to staff %s in %s", staffID, division), closeAt))
		app.CurrentPoint = models.PointTechnicalReview
		app.Status = models.StatusUnderReview
		return nil
	})
}

// SubmitAssessment records the technical reviewer's findings: the staff clock
// closes and a deputy director recommendation clock opens, routed to the
// divisional DDD when one is registered.
func (s *WorkflowService) SubmitAssessment(ctx context.Context, appID int64, req dto.SubmitAssessmentRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.Justification) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "justification is required")
		s.observe("submit_assessment", err)
		return nil, err
	}
	division := models.NormalizeDivision(req.Division)
	if division == "" {
		division = models.NormalizeDivision(actor.Division)
	}
	if division == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "division is required")
		s.observe("submit_assessment", err)
		return nil, err
	}

	return s.transition(ctx, "submit_assessment", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, division, models.PointTechnicalReview)
		if err != nil {
			return segmentLookupError(err, fmt.Sprintf("no open technical review segment for division %s", division))
		}
		if seg.StaffID != nil && actor.UserID != "" && *seg.StaffID != actor.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "technical review segment belongs to a different reviewer")
		}
		closeAt, openAt := s.clockTimes()
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Details:   models.SegmentDetails{Notes: req.Justification, Iteration: seg.Details.Iteration},
		}); err != nil {
			return wrapSegmentError(err, "failed to close technical review segment")
		}

		next := &models.TimelineSegment{
			ApplicationID: appID,
			Division:      division,
			Point:         models.PointDDDReturn,
			StartTime:     openAt,
		}
		if ddd := s.resolveDDD(ctx, division); ddd != nil {
			next.StaffID = &ddd.ID
		}
		if err := tx.OpenSegment(ctx, next); err != nil {
			return wrapSegmentError(err, "failed to open deputy director review segment")
		}

		app.AppendComment(models.NewAssessmentComment(actor, req.Justification, req.Observations, closeAt))
		app.CurrentPoint = models.PointDDDReturn
		app.Status = models.StatusPendingDDRecommendation
		return nil
	})
}

// Endorse forwards a divisional recommendation upward. From the deputy
// director return stage it routes through the IRSD hub when enabled;
// otherwise, and from the hub itself, the division's stream is complete. The
// single Director final review clock opens once no divisional stream remains
// open.
func (s *WorkflowService) Endorse(ctx context.Context, appID int64, req dto.EndorseRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.Remarks) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "endorsement remarks are required")
		s.observe("endorse", err)
		return nil, err
	}
	if strings.TrimSpace(req.Division) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "division is required")
		s.observe("endorse", err)
		return nil, err
	}
	division := models.NormalizeDivision(req.Division)

	return s.transition(ctx, "endorse", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, division, models.PointDDDReturn)
		atHub := false
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return segmentLookupError(err, "")
			}
			seg, err = tx.FindOpenSegment(ctx, appID, division, models.PointHubClearance)
			if err != nil {
				return segmentLookupError(err, fmt.Sprintf("no open endorsement segment for division %s", division))
			}
			atHub = true
		}

		closeAt, openAt := s.clockTimes()
		outcome := models.OutcomeForwardedToDirector
		if atHub {
			outcome = models.OutcomeHubCleared
		}
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Details:   models.SegmentDetails{Outcome: outcome, Notes: req.Remarks},
		}); err != nil {
			return wrapSegmentError(err, "failed to close endorsement segment")
		}

		if !atHub && s.cfg.HubEnabled {
			hub := &models.TimelineSegment{
				ApplicationID: appID,
				Division:      division,
				Point:         models.PointHubClearance,
				StartTime:     openAt,
			}
			if err := tx.OpenSegment(ctx, hub); err != nil {
				return wrapSegmentError(err, "failed to open hub clearance segment")
			}
			app.AppendComment(models.NewEndorsementComment(actor, req.Remarks, closeAt))
			app.CurrentPoint = models.PointHubClearance
			return nil
		}

		// All divisional streams must finish before the Director desk opens.
		open, err := tx.OpenSegments(ctx, appID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to inspect open segments")
		}
		app.AppendComment(models.NewEndorsementComment(actor, req.Remarks, closeAt))
		if len(open) > 0 {
			app.CurrentPoint = models.SummarizePoint(open)
			return nil
		}
		director := &models.TimelineSegment{
			ApplicationID: appID,
			Division:      models.DivisionDirectorate,
			Point:         models.PointDirectorFinal,
			StartTime:     openAt,
		}
		if err := tx.OpenSegment(ctx, director); err != nil {
			return wrapSegmentError(err, "failed to open director review segment")
		}
		app.CurrentPoint = models.PointDirectorFinal
		app.Status = models.StatusPendingDirector
		return nil
	})
}

// ReturnForRework sends a dossier back from the deputy director desk to the
// technical reviewer, keeping the previous reviewer unless a reassignment is
// given. The rework iteration counter carries into the new clock.
func (s *WorkflowService) ReturnForRework(ctx context.Context, appID int64, req dto.ReworkRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.Reason) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "rework reason is required")
		s.observe("return_for_rework", err)
		return nil, err
	}
	if strings.TrimSpace(req.Division) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "division is required")
		s.observe("return_for_rework", err)
		return nil, err
	}
	division := models.NormalizeDivision(req.Division)

	return s.transition(ctx, "return_for_rework", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, division, models.PointDDDReturn)
		if err != nil {
			return segmentLookupError(err, fmt.Sprintf("no open deputy director review segment for division %s", division))
		}
		closeAt, openAt := s.clockTimes()
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Details:   models.SegmentDetails{Outcome: models.OutcomeReturnedForRework, Reason: req.Reason},
		}); err != nil {
			return wrapSegmentError(err, "failed to close deputy director review segment")
		}

		staffID := strings.TrimSpace(req.StaffID)
		iteration := 1
		prev, err := tx.LatestClosedSegment(ctx, appID, division, models.PointTechnicalReview)
		if err == nil {
			iteration = prev.Details.Iteration + 1
			if iteration < 2 {
				iteration = 2
			}
			if staffID == "" && prev.StaffID != nil {
				staffID = *prev.StaffID
			}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load previous review segment")
		}
		if staffID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "no previous reviewer on record; staff reassignment is required")
		}

		next := &models.TimelineSegment{
			ApplicationID: appID,
			Division:      division,
			Point:         models.PointTechnicalReview,
			StaffID:       &staffID,
			StartTime:     openAt,
			Details:       models.SegmentDetails{Iteration: iteration, Reason: req.Reason},
		}
		if err := tx.OpenSegment(ctx, next); err != nil {
			return wrapSegmentError(err, "failed to open rework segment")
		}

		app.AppendComment(models.NewReworkComment(actor, req.Reason, iteration, closeAt))
		app.CurrentPoint = models.PointTechnicalReview
		app.Status = models.StatusReworkRequired
		return nil
	})
}

// IssueClearance closes the Director final review with a certificate. The
// Director clock is annotated "Certificate Issued"; repeating the action on an
// already cleared dossier fails with NOT_FOUND since no Director segment
// remains open.
func (s *WorkflowService) IssueClearance(ctx context.Context, appID int64, req dto.ClearanceRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.Remarks) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "executive remarks are required")
		s.observe("issue_clearance", err)
		return nil, err
	}

	return s.transition(ctx, "issue_clearance", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, models.DivisionDirectorate, models.PointDirectorFinal)
		if err != nil {
			return segmentLookupError(err, "no open director review segment; application may already be cleared")
		}

		certificatePath := ""
		if s.certs != nil {
			certificatePath, err = s.certs.Issue(ctx, app, req.Remarks, actor)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render clearance certificate")
			}
		}

		closeAt, _ := s.clockTimes()
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Point:     models.PointCertificateIssued,
			Details: models.SegmentDetails{
				Notes:       req.Remarks,
				Outcome:     models.OutcomeCleared,
				FinalStatus: models.StatusCleared,
			},
		}); err != nil {
			return wrapSegmentError(err, "failed to close director review segment")
		}

		app.AppendComment(models.NewClearanceComment(actor, req.Remarks, closeAt))
		app.CurrentPoint = models.PointCompleted
		app.Status = models.StatusCleared
		app.Details.ArchivedPath = certificatePath
		return nil
	})
}

// Reject sends the dossier back down from the Director desk to the selected
// division's deputy director or technical reviewer.
func (s *WorkflowService) Reject(ctx context.Context, appID int64, req dto.RejectRequest, actor models.Identity) (*models.Application, error) {
	if strings.TrimSpace(req.Reason) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
		s.observe("reject", err)
		return nil, err
	}
	if strings.TrimSpace(req.Division) == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "target division is required")
		s.observe("reject", err)
		return nil, err
	}
	if req.TargetPoint != models.PointDDD && req.TargetPoint != models.PointTechnicalReview {
		err := appErrors.Clone(appErrors.ErrValidation, "target point must be the deputy director or technical review stage")
		s.observe("reject", err)
		return nil, err
	}
	division := models.NormalizeDivision(req.Division)

	return s.transition(ctx, "reject", appID, func(tx repository.WorkflowTx, app *models.Application) error {
		seg, err := tx.FindOpenSegment(ctx, appID, models.DivisionDirectorate, models.PointDirectorFinal)
		if err != nil {
			return segmentLookupError(err, "no open director review segment")
		}
		closeAt, openAt := s.clockTimes()
		if err := tx.CloseSegment(ctx, repository.CloseSegmentParams{
			SegmentID: seg.ID,
			EndTime:   closeAt,
			Details:   models.SegmentDetails{Outcome: models.OutcomeRejectedForRework, Reason: req.Reason},
		}); err != nil {
			return wrapSegmentError(err, "failed to close director review segment")
		}

		next := &models.TimelineSegment{
			ApplicationID: appID,
			Division:      division,
			Point:         req.TargetPoint,
			StartTime:     openAt,
			Details:       models.SegmentDetails{Reason: req.Reason},
		}
		if req.TargetPoint == models.PointTechnicalReview {
			staffID := strings.TrimSpace(req.StaffID)
			if staffID == "" {
				prev, err := tx.LatestClosedSegment(ctx, appID, division, models.PointTechnicalReview)
				if err != nil {
					if errors.Is(err, sql.ErrNoRows) {
						return appErrors.Clone(appErrors.ErrValidation, "no previous reviewer on record; staff id is required")
					}
					return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load previous review segment")
				}
				if prev.StaffID != nil {
					staffID = *prev.StaffID
				}
			}
			if staffID != "" {
				next.StaffID = &staffID
			}
		}
		if err := tx.OpenSegment(ctx, next); err != nil {
			return wrapSegmentError(err, "failed to open rework segment")
		}

		app.AppendComment(models.NewRejectionComment(actor, req.Reason, closeAt))
		app.CurrentPoint = req.TargetPoint
		app.Status = models.StatusReworkRequired
		return nil
	})
}

// resolveDDD looks up the divisional deputy director. Missing directory data
// degrades to an unassigned segment rather than failing the transition.
func (s *WorkflowService) resolveDDD(ctx context.Context, division string) *models.User {
	if s.directory == nil {
		return nil
	}
	user, err := s.directory.ResolveDivisionDDD(ctx, division)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve divisional deputy director",
				zap.String("division", division), zap.Error(err))
		}
		return nil
	}
	return user
}

func segmentLookupError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		if message == "" {
			message = "no open segment at the expected stage"
		}
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load timeline segment")
}

func wrapSegmentError(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicateOpenSegment) {
		return appErrors.Clone(appErrors.ErrConflict, "an open segment already exists for this division and stage")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, message)
}

func normalizeDivisions(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, division := range raw {
		normalized := models.NormalizeDivision(division)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func pushText(remarks string, divisions []string) string {
	if remarks != "" {
		return remarks
	}
	return "Pushed to divisions: " + strings.Join(divisions, ", ")
}
