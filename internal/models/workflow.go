package models

import "strings"

// Workflow points: the named positions an application or timeline segment can
// occupy. Point values are persisted as-is, so they must stay stable.
const (
	PointDirector          = "Director"
	PointDDD               = "Divisional Deputy Director"
	PointAssignedToStaff   = "Assigned to Staff"
	PointTechnicalReview   = "Technical Review"
	PointDDDReturn         = "Technical DD Review Return"
	PointHubClearance      = "IRSD Hub Clearance"
	PointDirectorFinal     = "Director Final Review"
	PointCertificateIssued = "Certificate Issued"
	PointCompleted         = "COMPLETED"
)

// Coarse lifecycle statuses. Intentionally coarser than the point: dashboards
// that only need the lifecycle category read this field.
const (
	StatusPending                 = "PENDING"
	StatusPendingDirector         = "PENDING_DIRECTOR"
	StatusUnderReview             = "UNDER_REVIEW"
	StatusPendingDDRecommendation = "PENDING_DD_RECOMMENDATION"
	StatusReworkRequired          = "REWORK_REQUIRED"
	StatusCleared                 = "CLEARED"
)

// Reserved division contexts for the intake desk and the directorate.
const (
	DivisionLOD         = "LOD"
	DivisionDirectorate = "DIRECTORATE"
)

// Segment outcomes recorded in details when a desk's clock is closed.
const (
	OutcomePushedToDivisions   = "PUSHED_TO_DIVISIONS"
	OutcomeForwardedToDirector = "FORWARDED_TO_DIRECTOR"
	OutcomeHubCleared          = "HUB_CLEARED"
	OutcomeReturnedForRework   = "RETURNED_FOR_REWORK"
	OutcomeRejectedForRework   = "REJECTED_FOR_REWORK"
	OutcomeCleared             = "CLEARED"
)

// Identity is the acting reviewer passed explicitly into every workflow
// action. The engine never reads a process-wide current user.
type Identity struct {
	UserID   string   `json:"userId"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Division string   `json:"division,omitempty"`
}

// NormalizeDivision canonicalises a division code. All engine writes pass
// through this, so stored values are uniformly upper case; reads still compare
// case-insensitively to tolerate historical rows.
func NormalizeDivision(division string) string {
	return strings.ToUpper(strings.TrimSpace(division))
}

// pointRank orders workflow points by pipeline progress. Used only by
// SummarizePoint; unknown points sort first.
var pointRank = map[string]int{
	PointDirector:        1,
	PointDDD:             2,
	PointTechnicalReview: 3,
	PointDDDReturn:       4,
	PointHubClearance:    5,
	PointDirectorFinal:   6,
}

// SummarizePoint reconciles the authoritative per-division segment states into
// a single summary point. The stored Application.CurrentPoint follows the last
// action; with several divisions concurrently active it can run ahead of the
// slowest stream, so consumers needing the conservative view call this
// instead of deciding ad hoc which field to trust. Returns PointCompleted when
// no segment is open.
func SummarizePoint(open []TimelineSegment) string {
	if len(open) == 0 {
		return PointCompleted
	}
	summary := open[0].Point
	best := rankOf(summary)
	for _, seg := range open[1:] {
		if r := rankOf(seg.Point); r < best {
			best = r
			summary = seg.Point
		}
	}
	return summary
}

func rankOf(point string) int {
	if r, ok := pointRank[point]; ok {
		return r
	}
	return 0
}
