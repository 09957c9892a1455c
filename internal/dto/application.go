package dto

import "github.com/regops/dossier-flow-api/internal/models"

// ApplicationDetail combines the stored record with the derived views the
// dashboard needs: the reconciled summary point, open clocks and the
// outstanding findings.
type ApplicationDetail struct {
	Application    *models.Application      `json:"application"`
	EffectivePoint string                   `json:"effectivePoint"`
	OpenSegments   []models.TimelineSegment `json:"openSegments"`
	Outstanding    []models.Observation     `json:"outstandingObservations,omitempty"`
}

// CreateCompanyRequest registers an applicant organisation.
type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// CreateUserRequest registers a reviewer account.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Division string `json:"division"`
}

// RequestReportRequest asks for an asynchronous performance report.
type RequestReportRequest struct {
	Format string `json:"format" binding:"required,oneof=CSV PDF csv pdf"`
}
