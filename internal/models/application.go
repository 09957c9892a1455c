package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ObservationSeverity classifies a finding.
type ObservationSeverity string

const (
	SeverityCritical ObservationSeverity = "Critical"
	SeverityMajor    ObservationSeverity = "Major"
	SeverityMinor    ObservationSeverity = "Minor"
)

// Observation is a structured deficiency finding (CAPA item) recorded by a
// technical reviewer.
type Observation struct {
	System   string              `json:"system"`
	Finding  string              `json:"finding"`
	Severity ObservationSeverity `json:"severity"`
}

// CommentAction discriminates the narrative trail entry kinds.
type CommentAction string

const (
	ActionIntakeSubmitted     CommentAction = "INTAKE_SUBMITTED"
	ActionPushedToDivisions   CommentAction = "PUSHED_TO_DIVISIONS"
	ActionStaffAssigned       CommentAction = "STAFF_ASSIGNED"
	ActionAssessmentSubmitted CommentAction = "TECHNICAL_ASSESSMENT_SUBMITTED"
	ActionEndorsedForward     CommentAction = "ENDORSED_FORWARD"
	ActionReturnedForRework   CommentAction = "RETURNED_FOR_REWORK"
	ActionClearanceIssued     CommentAction = "CLEARANCE_ISSUED"
	ActionDirectorRejected    CommentAction = "DIRECTOR_REJECTED"
)

// Comment is one narrative trail entry. The trail is the sole audit record:
// entries are append-only and never edited or removed. Which optional fields
// are populated depends on the Action tag; use the New*Comment constructors so
// each variant carries its fixed field set.
type Comment struct {
	Author       string        `json:"author"`
	AuthorName   string        `json:"authorName,omitempty"`
	Role         UserRole      `json:"role"`
	Division     string        `json:"division,omitempty"`
	Text         string        `json:"text"`
	Action       CommentAction `json:"action"`
	Timestamp    time.Time     `json:"timestamp"`
	Observations []Observation `json:"observations,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Iteration    int           `json:"iteration,omitempty"`
}

func newComment(actor Identity, action CommentAction, text string, at time.Time) Comment {
	return Comment{
		Author:     actor.UserID,
		AuthorName: actor.Name,
		Role:       actor.Role,
		Division:   actor.Division,
		Text:       text,
		Action:     action,
		Timestamp:  at.UTC(),
	}
}

// NewIntakeComment seeds the trail when LOD registers the dossier.
func NewIntakeComment(actor Identity, text string, at time.Time) Comment {
	return newComment(actor, ActionIntakeSubmitted, text, at)
}

// NewPushComment records the Director triage pushing to divisions.
func NewPushComment(actor Identity, text string, at time.Time) Comment {
	return newComment(actor, ActionPushedToDivisions, text, at)
}

// NewAssignmentComment records a DDD assigning the dossier to staff.
func NewAssignmentComment(actor Identity, text string, at time.Time) Comment {
	return newComment(actor, ActionStaffAssigned, text, at)
}

// NewAssessmentComment records a staff submission with its findings.
func NewAssessmentComment(actor Identity, justification string, observations []Observation, at time.Time) Comment {
	c := newComment(actor, ActionAssessmentSubmitted, justification, at)
	c.Observations = observations
	return c
}

// NewEndorsementComment records a DDD or hub endorsement upward.
func NewEndorsementComment(actor Identity, remarks string, at time.Time) Comment {
	return newComment(actor, ActionEndorsedForward, remarks, at)
}

// NewReworkComment records a return-for-rework with reason and iteration.
func NewReworkComment(actor Identity, reason string, iteration int, at time.Time) Comment {
	c := newComment(actor, ActionReturnedForRework, reason, at)
	c.Reason = reason
	c.Iteration = iteration
	return c
}

// NewClearanceComment records the Director's final clearance.
func NewClearanceComment(actor Identity, remarks string, at time.Time) Comment {
	return newComment(actor, ActionClearanceIssued, remarks, at)
}

// NewRejectionComment records a Director rejection back down the chain.
func NewRejectionComment(actor Identity, reason string, at time.Time) Comment {
	c := newComment(actor, ActionDirectorRejected, reason, at)
	c.Reason = reason
	return c
}

// LatestComment scans the trail in reverse for the most recent entry matching
// the predicate. O(n); the trail is ordered oldest first.
func LatestComment(trail []Comment, pred func(Comment) bool) (Comment, bool) {
	for i := len(trail) - 1; i >= 0; i-- {
		if pred(trail[i]) {
			return trail[i], true
		}
	}
	return Comment{}, false
}

// LatestObservations returns the findings attached to the most recent staff
// submission, i.e. the CAPAs currently outstanding.
func LatestObservations(trail []Comment) []Observation {
	c, ok := LatestComment(trail, func(c Comment) bool {
		return c.Action == ActionAssessmentSubmitted
	})
	if !ok {
		return nil
	}
	return c.Observations
}

// IntakeInputs carries the free-form intake form fields.
type IntakeInputs struct {
	FacilityName    string   `json:"facilityName,omitempty"`
	FacilityAddress string   `json:"facilityAddress,omitempty"`
	DocumentURLs    []string `json:"documentUrls,omitempty"`
}

// ApplicationDetails is the structured attributes bag persisted as JSONB.
type ApplicationDetails struct {
	Inputs            IntakeInputs `json:"inputs"`
	AssignedDivisions []string     `json:"assignedDivisions,omitempty"`
	Comments          []Comment    `json:"comments"`
	ArchivedPath      string       `json:"archived_path,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (d ApplicationDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB storage.
func (d *ApplicationDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ApplicationDetails{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported application details type %T", src)
	}
}

// Application is a regulatory dossier moving through the review workflow.
// CurrentPoint is a summary label: with several divisions concurrently active
// the authoritative per-division states live in the open timeline segments
// (see SummarizePoint).
type Application struct {
	ID                int64              `db:"id" json:"id"`
	ApplicationNumber string             `db:"application_number" json:"applicationNumber"`
	Type              string             `db:"type" json:"type"`
	CompanyID         *string            `db:"company_id" json:"companyId,omitempty"`
	CurrentPoint      string             `db:"current_point" json:"currentPoint"`
	RiskCategory      *string            `db:"risk_category" json:"riskCategory,omitempty"`
	Status            string             `db:"status" json:"status"`
	Details           ApplicationDetails `db:"details" json:"details"`
	CreatedAt         time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updatedAt"`
}

// AppendComment adds a trail entry. The trail is append-only; nothing ever
// removes or rewrites existing entries.
func (a *Application) AppendComment(c Comment) {
	a.Details.Comments = append(a.Details.Comments, c)
}

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	Status   string
	Point    string
	Division string
	Search   string
	Limit    int
	Offset   int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
