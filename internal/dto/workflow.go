package dto

import "github.com/regops/dossier-flow-api/internal/models"

// IntakeRequest registers a new dossier at the LOD desk.
type IntakeRequest struct {
	ApplicationNumber string   `json:"applicationNumber" binding:"required"`
	Type              string   `json:"type" binding:"required"`
	CompanyID         string   `json:"companyId"`
	RiskCategory      string   `json:"riskCategory"`
	FacilityName      string   `json:"facilityName"`
	FacilityAddress   string   `json:"facilityAddress"`
	DocumentURLs      []string `json:"documentUrls"`
	Divisions         []string `json:"divisions"`
	Remarks           string   `json:"remarks"`
}

// PushToDivisionsRequest sends a triaged dossier into divisional review.
type PushToDivisionsRequest struct {
	Divisions []string `json:"divisions" binding:"required"`
	Remarks   string   `json:"remarks"`
}

// AssignStaffRequest assigns a divisional dossier to a technical reviewer.
type AssignStaffRequest struct {
	Division string `json:"division" binding:"required"`
	StaffID  string `json:"staffId" binding:"required"`
	Remarks  string `json:"remarks"`
}

// SubmitAssessmentRequest records staff findings back to the DDD.
type SubmitAssessmentRequest struct {
	Division      string               `json:"division"`
	Justification string               `json:"justification" binding:"required"`
	Observations  []models.Observation `json:"observations"`
}

// EndorseRequest forwards a divisional recommendation up the chain.
type EndorseRequest struct {
	Division string `json:"division" binding:"required"`
	Remarks  string `json:"remarks" binding:"required"`
}

// ReworkRequest returns a dossier to the technical reviewer.
type ReworkRequest struct {
	Division string `json:"division" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
	// StaffID reassigns the rework to a different reviewer; when empty the
	// previous reviewer keeps it.
	StaffID string `json:"staffId"`
}

// ClearanceRequest issues the final Director clearance.
type ClearanceRequest struct {
	Remarks string `json:"remarks" binding:"required"`
}

// RejectRequest sends a dossier back down from the Director desk.
type RejectRequest struct {
	Division string `json:"division" binding:"required"`
	// TargetPoint is the stage the dossier is returned to: the division's
	// deputy director desk or the technical reviewer.
	TargetPoint string `json:"targetPoint" binding:"required"`
	StaffID     string `json:"staffId"`
	Reason      string `json:"reason" binding:"required"`
}
