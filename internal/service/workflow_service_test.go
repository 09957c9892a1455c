package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/internal/repository"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

// fakeTx is an in-memory WorkflowTx implementing the same contracts as the
// Postgres-backed transaction, including the single-open-segment invariant.
type fakeTx struct {
	apps     map[int64]*models.Application
	segments []*models.TimelineSegment
	nextApp  int64
	nextSeg  int64
}

func newFakeTx() *fakeTx {
	return &fakeTx{apps: make(map[int64]*models.Application), nextApp: 1, nextSeg: 1}
}

func (f *fakeTx) CreateApplication(_ context.Context, app *models.Application) error {
	app.ID = f.nextApp
	f.nextApp++
	f.apps[app.ID] = app
	return nil
}

func (f *fakeTx) GetApplicationForUpdate(_ context.Context, id int64) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return app, nil
}

func (f *fakeTx) UpdateApplicationState(_ context.Context, app *models.Application) error {
	if _, ok := f.apps[app.ID]; !ok {
		return sql.ErrNoRows
	}
	f.apps[app.ID] = app
	return nil
}

func (f *fakeTx) OpenSegment(_ context.Context, seg *models.TimelineSegment) error {
	seg.Division = models.NormalizeDivision(seg.Division)
	for _, existing := range f.segments {
		if existing.EndTime == nil &&
			existing.ApplicationID == seg.ApplicationID &&
			existing.Division == seg.Division &&
			existing.Point == seg.Point {
			return repository.ErrDuplicateOpenSegment
		}
	}
	seg.ID = f.nextSeg
	f.nextSeg++
	f.segments = append(f.segments, seg)
	return nil
}

func (f *fakeTx) CloseSegment(_ context.Context, params repository.CloseSegmentParams) error {
	for _, seg := range f.segments {
		if seg.ID == params.SegmentID && seg.EndTime == nil {
			end := params.EndTime
			seg.EndTime = &end
			if params.Point != "" {
				seg.Point = params.Point
			}
			seg.Details = params.Details
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeTx) FindOpenSegment(_ context.Context, appID int64, division, point string) (*models.TimelineSegment, error) {
	division = models.NormalizeDivision(division)
	for _, seg := range f.segments {
		if seg.EndTime == nil && seg.ApplicationID == appID && seg.Division == division && seg.Point == point {
			return seg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTx) OpenSegments(_ context.Context, appID int64) ([]models.TimelineSegment, error) {
	var open []models.TimelineSegment
	for _, seg := range f.segments {
		if seg.EndTime == nil && seg.ApplicationID == appID {
			open = append(open, *seg)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].StartTime.Before(open[j].StartTime) })
	return open, nil
}

func (f *fakeTx) LatestClosedSegment(_ context.Context, appID int64, division, point string) (*models.TimelineSegment, error) {
	division = models.NormalizeDivision(division)
	var latest *models.TimelineSegment
	for _, seg := range f.segments {
		if seg.EndTime != nil && seg.ApplicationID == appID && seg.Division == division && seg.Point == point {
			if latest == nil || seg.EndTime.After(*latest.EndTime) {
				latest = seg
			}
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	return latest, nil
}

type fakeStore struct {
	tx *fakeTx
}

func (s *fakeStore) Transact(_ context.Context, fn func(tx repository.WorkflowTx) error) error {
	return fn(s.tx)
}

type fakeDirectory struct {
	ddds map[string]*models.User
}

func (d *fakeDirectory) ResolveDivisionDDD(_ context.Context, division string) (*models.User, error) {
	user, ok := d.ddds[models.NormalizeDivision(division)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type fakeIssuer struct {
	path   string
	issued int
}

func (i *fakeIssuer) Issue(_ context.Context, app *models.Application, _ string, _ models.Identity) (string, error) {
	i.issued++
	return i.path, nil
}

var (
	lodActor      = models.Identity{UserID: "u-lod", Name: "Intake Officer", Role: models.RoleLOD, Division: "LOD"}
	directorActor = models.Identity{UserID: "u-dir", Name: "The Director", Role: models.RoleDirector, Division: "DIRECTORATE"}
	qmsDDDActor   = models.Identity{UserID: "u-ddd-qms", Name: "QMS Deputy", Role: models.RoleDDD, Division: "QMS"}
	qmsStaffActor = models.Identity{UserID: "u-staff-1", Name: "QMS Reviewer", Role: models.RoleStaff, Division: "QMS"}
)

func newTestEngine(t *testing.T, opts ...WorkflowServiceOption) (*WorkflowService, *fakeTx) {
	t.Helper()
	tx := newFakeTx()
	directory := &fakeDirectory{ddds: map[string]*models.User{
		"QMS": {ID: "u-ddd-qms", FullName: "QMS Deputy", Role: models.RoleDDD, Division: "QMS"},
	}}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	opts = append([]WorkflowServiceOption{WithClock(clock)}, opts...)
	svc := NewWorkflowService(&fakeStore{tx: tx}, directory, config.WorkflowConfig{}, nil, opts...)
	return svc, tx
}

func mustIntake(t *testing.T, svc *WorkflowService) *models.Application {
	t.Helper()
	app, err := svc.Intake(context.Background(), dto.IntakeRequest{
		ApplicationNumber: "GMP-2025-0001",
		Type:              "GMP Facility Clearance",
		FacilityName:      "Acme Sterile Plant",
	}, lodActor)
	require.NoError(t, err)
	return app
}

func TestIntakeRegistersDossier(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)

	assert.Equal(t, models.PointDirector, app.CurrentPoint)
	assert.Equal(t, models.StatusPendingDirector, app.Status)
	require.Len(t, app.Details.Comments, 1)
	assert.Equal(t, models.ActionIntakeSubmitted, app.Details.Comments[0].Action)
	assert.Equal(t, "u-lod", app.Details.Comments[0].Author)

	open, err := tx.OpenSegments(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, models.DivisionLOD, open[0].Division)
	assert.Equal(t, models.PointDirector, open[0].Point)
}

func TestIntakeRequiresApplicationNumber(t *testing.T) {
	svc, _ := newTestEngine(t)
	_, err := svc.Intake(context.Background(), dto.IntakeRequest{Type: "GMP"}, lodActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPushOpensOneSegmentPerDivision(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)

	updated, err := svc.PushToDivisions(context.Background(), app.ID, dto.PushToDivisionsRequest{
		Divisions: []string{"qms", "Inspection", "QMS"},
	}, directorActor)
	require.NoError(t, err)

	assert.Equal(t, models.PointDDD, updated.CurrentPoint)
	assert.Equal(t, models.StatusUnderReview, updated.Status)
	assert.Equal(t, []string{"QMS", "INSPECTION"}, updated.Details.AssignedDivisions)

	open, err := tx.OpenSegments(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, open, 2)
	for _, seg := range open {
		assert.Equal(t, models.PointDDD, seg.Point)
	}

	// the intake clock closed with its outcome and strictly before the new clocks
	closed, err := tx.LatestClosedSegment(context.Background(), app.ID, models.DivisionLOD, models.PointDirector)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePushedToDivisions, closed.Details.Outcome)
	for _, seg := range open {
		assert.True(t, seg.StartTime.After(*closed.EndTime))
	}
}

func TestPushConflictsWithExistingOpenSegment(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)

	require.NoError(t, tx.OpenSegment(context.Background(), &models.TimelineSegment{
		ApplicationID: app.ID,
		Division:      "QMS",
		Point:         models.PointDDD,
		StartTime:     time.Now().UTC(),
	}))

	_, err := svc.PushToDivisions(context.Background(), app.ID, dto.PushToDivisionsRequest{
		Divisions: []string{"QMS"},
	}, directorActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func pushAndAssign(t *testing.T, svc *WorkflowService, appID int64, divisions ...string) {
	t.Helper()
	_, err := svc.PushToDivisions(context.Background(), appID, dto.PushToDivisionsRequest{Divisions: divisions}, directorActor)
	require.NoError(t, err)
	_, err = svc.AssignStaff(context.Background(), appID, dto.AssignStaffRequest{
		Division: "QMS", StaffID: "u-staff-1",
	}, qmsDDDActor)
	require.NoError(t, err)
}

func TestAssignStaffAnnotatesAndReassignsClock(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)
	pushAndAssign(t, svc, app.ID, "QMS")

	closed, err := tx.LatestClosedSegment(context.Background(), app.ID, "QMS", models.PointAssignedToStaff)
	require.NoError(t, err)
	assert.NotNil(t, closed.EndTime)

	open, err := tx.FindOpenSegment(context.Background(), app.ID, "QMS", models.PointTechnicalReview)
	require.NoError(t, err)
	require.NotNil(t, open.StaffID)
	assert.Equal(t, "u-staff-1", *open.StaffID)
}

func TestSubmitAssessmentRejectsWrongReviewer(t *testing.T) {
	svc, _ := newTestEngine(t)
	app := mustIntake(t, svc)
	pushAndAssign(t, svc, app.ID, "QMS")

	intruder := models.Identity{UserID: "u-staff-2", Name: "Other", Role: models.RoleStaff, Division: "QMS"}
	_, err := svc.SubmitAssessment(context.Background(), app.ID, dto.SubmitAssessmentRequest{
		Division: "QMS", Justification: "looks fine",
	}, intruder)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitAssessmentRoutesToDivisionDDD(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)
	pushAndAssign(t, svc, app.ID, "QMS")

	observations := []models.Observation{
		{System: "Water system", Finding: "Trend data incomplete", Severity: models.SeverityMajor},
	}
	updated, err := svc.SubmitAssessment(context.Background(), app.ID, dto.SubmitAssessmentRequest{
		Division:      "QMS",
		Justification: "Assessment complete, one major observation",
		Observations:  observations,
	}, qmsStaffActor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPendingDDRecommendation, updated.Status)
	assert.Equal(t, observations, models.LatestObservations(updated.Details.Comments))

	open, err := tx.FindOpenSegment(context.Background(), app.ID, "QMS", models.PointDDDReturn)
	require.NoError(t, err)
	require.NotNil(t, open.StaffID)
	assert.Equal(t, "u-ddd-qms", *open.StaffID)
}

func completeDivision(t *testing.T, svc *WorkflowService, appID int64, division, staffID string) {
	t.Helper()
	ddd := models.Identity{UserID: "u-ddd-" + division, Role: models.RoleDDD, Division: division}
	staff := models.Identity{UserID: staffID, Role: models.RoleStaff, Division: division}
	_, err := svc.AssignStaff(context.Background(), appID, dto.AssignStaffRequest{Division: division, StaffID: staffID}, ddd)
	require.NoError(t, err)
	_, err = svc.SubmitAssessment(context.Background(), appID, dto.SubmitAssessmentRequest{Division: division, Justification: "done"}, staff)
	require.NoError(t, err)
	_, err = svc.Endorse(context.Background(), appID, dto.EndorseRequest{Division: division, Remarks: "recommend clearance"}, ddd)
	require.NoError(t, err)
}

func TestDirectorDeskOpensOnlyWhenAllStreamsClose(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)
	_, err := svc.PushToDivisions(context.Background(), app.ID, dto.PushToDivisionsRequest{
		Divisions: []string{"QMS", "INSPECTION"},
	}, directorActor)
	require.NoError(t, err)

	completeDivision(t, svc, app.ID, "QMS", "u-staff-1")

	// the inspection stream is still at its deputy director desk
	_, err = tx.FindOpenSegment(context.Background(), app.ID, models.DivisionDirectorate, models.PointDirectorFinal)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	current, err := tx.GetApplicationForUpdate(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PointDDD, current.CurrentPoint)

	completeDivision(t, svc, app.ID, "INSPECTION", "u-staff-2")

	director, err := tx.FindOpenSegment(context.Background(), app.ID, models.DivisionDirectorate, models.PointDirectorFinal)
	require.NoError(t, err)
	assert.Nil(t, director.StaffID)
	current, err = tx.GetApplicationForUpdate(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PointDirectorFinal, current.CurrentPoint)
	assert.Equal(t, models.StatusPendingDirector, current.Status)
}

func TestEndorseRoutesThroughHubWhenEnabled(t *testing.T) {
	tx := newFakeTx()
	directory := &fakeDirectory{ddds: map[string]*models.User{}}
	svc := NewWorkflowService(&fakeStore{tx: tx}, directory, config.WorkflowConfig{HubEnabled: true}, nil)
	app := mustIntake(t, svc)
	pushAndAssign(t, svc, app.ID, "QMS")
	_, err := svc.SubmitAssessment(context.Background(), app.ID, dto.SubmitAssessmentRequest{Division: "QMS", Justification: "done"}, qmsStaffActor)
	require.NoError(t, err)

	updated, err := svc.Endorse(context.Background(), app.ID, dto.EndorseRequest{Division: "QMS", Remarks: "forward"}, qmsDDDActor)
	require.NoError(t, err)
	assert.Equal(t, models.PointHubClearance, updated.CurrentPoint)

	hub := models.Identity{UserID: "u-hub", Role: models.RoleDDD, Division: "QMS"}
	updated, err = svc.Endorse(context.Background(), app.ID, dto.EndorseRequest{Division: "QMS", Remarks: "hub cleared"}, hub)
	require.NoError(t, err)
	assert.Equal(t, models.PointDirectorFinal, updated.CurrentPoint)
}

func TestReworkCarriesIterationAndReviewer(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)
	pushAndAssign(t, svc, app.ID, "QMS")
	_, err := svc.SubmitAssessment(context.Background(), app.ID, dto.SubmitAssessmentRequest{Division: "QMS", Justification: "first pass"}, qmsStaffActor)
	require.NoError(t, err)

	updated, err := svc.ReturnForRework(context.Background(), app.ID, dto.ReworkRequest{
		Division: "QMS", Reason: "justification too thin",
	}, qmsDDDActor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReworkRequired, updated.Status)
	assert.Equal(t, models.PointTechnicalReview, updated.CurrentPoint)
	last := updated.Details.Comments[len(updated.Details.Comments)-1]
	assert.Equal(t, models.ActionReturnedForRework, last.Action)
	assert.Equal(t, 2, last.Iteration)

	open, err := tx.FindOpenSegment(context.Background(), app.ID, "QMS", models.PointTechnicalReview)
	require.NoError(t, err)
	require.NotNil(t, open.StaffID)
	assert.Equal(t, "u-staff-1", *open.StaffID)
	assert.Equal(t, 2, open.Details.Iteration)
}

func TestClearanceClosesPipelineAndIsNotRepeatable(t *testing.T) {
	issuer := &fakeIssuer{path: "certificates/GMP-2025-0001.pdf"}
	svc, tx := newTestEngine(t, WithCertificateIssuer(issuer))
	app := mustIntake(t, svc)
	_, err := svc.PushToDivisions(context.Background(), app.ID, dto.PushToDivisionsRequest{Divisions: []string{"QMS"}}, directorActor)
	require.NoError(t, err)
	completeDivision(t, svc, app.ID, "QMS", "u-staff-1")

	updated, err := svc.IssueClearance(context.Background(), app.ID, dto.ClearanceRequest{Remarks: "cleared"}, directorActor)
	require.NoError(t, err)
	assert.Equal(t, models.PointCompleted, updated.CurrentPoint)
	assert.Equal(t, models.StatusCleared, updated.Status)
	assert.Equal(t, issuer.path, updated.Details.ArchivedPath)
	assert.Equal(t, 1, issuer.issued)

	closed, err := tx.LatestClosedSegment(context.Background(), app.ID, models.DivisionDirectorate, models.PointCertificateIssued)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCleared, closed.Details.FinalStatus)

	open, err := tx.OpenSegments(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	// the Director desk is gone, so a second clearance finds nothing to close
	_, err = svc.IssueClearance(context.Background(), app.ID, dto.ClearanceRequest{Remarks: "again"}, directorActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, issuer.issued)
}

func TestRejectReturnsToPreviousReviewer(t *testing.T) {
	svc, tx := newTestEngine(t)
	app := mustIntake(t, svc)
	_, err := svc.PushToDivisions(context.Background(), app.ID, dto.PushToDivisionsRequest{Divisions: []string{"QMS"}}, directorActor)
	require.NoError(t, err)
	completeDivision(t, svc, app.ID, "QMS", "u-staff-1")

	updated, err := svc.Reject(context.Background(), app.ID, dto.RejectRequest{
		Division: "QMS", TargetPoint: models.PointTechnicalReview, Reason: "insufficient evidence",
	}, directorActor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReworkRequired, updated.Status)
	open, err := tx.FindOpenSegment(context.Background(), app.ID, "QMS", models.PointTechnicalReview)
	require.NoError(t, err)
	require.NotNil(t, open.StaffID)
	assert.Equal(t, "u-staff-1", *open.StaffID)
}

func TestTrailIsAppendOnlyAcrossTransitions(t *testing.T) {
	svc, _ := newTestEngine(t)
	app := mustIntake(t, svc)
	firstTrail := append([]models.Comment(nil), app.Details.Comments...)

	updated, err := svc.PushToDivisions(context.Background(), app.ID, dto.PushToDivisionsRequest{Divisions: []string{"QMS"}}, directorActor)
	require.NoError(t, err)

	require.Len(t, updated.Details.Comments, len(firstTrail)+1)
	for i, c := range firstTrail {
		assert.Equal(t, c.Action, updated.Details.Comments[i].Action)
		assert.Equal(t, c.Timestamp, updated.Details.Comments[i].Timestamp)
	}
}
