package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewer = Identity{UserID: "u-1", Name: "Jordan Reviewer", Role: RoleStaff, Division: "QMS"}

func TestCommentConstructorsCarryVariantFields(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	observations := []Observation{{System: "HVAC", Finding: "Filter log gap", Severity: SeverityMinor}}
	assessment := NewAssessmentComment(reviewer, "done", observations, at)
	assert.Equal(t, ActionAssessmentSubmitted, assessment.Action)
	assert.Equal(t, observations, assessment.Observations)
	assert.Equal(t, "u-1", assessment.Author)
	assert.Equal(t, at, assessment.Timestamp)

	rework := NewReworkComment(reviewer, "expand findings", 3, at)
	assert.Equal(t, ActionReturnedForRework, rework.Action)
	assert.Equal(t, "expand findings", rework.Reason)
	assert.Equal(t, 3, rework.Iteration)

	rejection := NewRejectionComment(reviewer, "not enough evidence", at)
	assert.Equal(t, ActionDirectorRejected, rejection.Action)
	assert.Equal(t, "not enough evidence", rejection.Reason)
	assert.Empty(t, rejection.Observations)
}

func TestLatestObservationsTracksMostRecentSubmission(t *testing.T) {
	at := time.Now().UTC()
	first := []Observation{{System: "Water", Finding: "old", Severity: SeverityMajor}}
	second := []Observation{{System: "Water", Finding: "new", Severity: SeverityMinor}}

	app := Application{}
	app.AppendComment(NewIntakeComment(reviewer, "registered", at))
	app.AppendComment(NewAssessmentComment(reviewer, "round one", first, at.Add(time.Hour)))
	app.AppendComment(NewReworkComment(reviewer, "redo", 2, at.Add(2*time.Hour)))
	app.AppendComment(NewAssessmentComment(reviewer, "round two", second, at.Add(3*time.Hour)))

	assert.Equal(t, second, LatestObservations(app.Details.Comments))

	latest, ok := LatestComment(app.Details.Comments, func(c Comment) bool {
		return c.Action == ActionReturnedForRework
	})
	require.True(t, ok)
	assert.Equal(t, 2, latest.Iteration)

	_, ok = LatestComment(app.Details.Comments, func(c Comment) bool {
		return c.Action == ActionClearanceIssued
	})
	assert.False(t, ok)
}

func TestApplicationDetailsScanRoundTrip(t *testing.T) {
	details := ApplicationDetails{
		Inputs:            IntakeInputs{FacilityName: "Acme Plant"},
		AssignedDivisions: []string{"QMS"},
		Comments:          []Comment{NewIntakeComment(reviewer, "registered", time.Now().UTC())},
		ArchivedPath:      "certificates/GMP-1.pdf",
	}
	value, err := details.Value()
	require.NoError(t, err)

	var decoded ApplicationDetails
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, details.Inputs, decoded.Inputs)
	assert.Equal(t, details.AssignedDivisions, decoded.AssignedDivisions)
	assert.Equal(t, details.ArchivedPath, decoded.ArchivedPath)
	require.Len(t, decoded.Comments, 1)
	assert.Equal(t, ActionIntakeSubmitted, decoded.Comments[0].Action)
}
