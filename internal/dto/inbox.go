package dto

import "github.com/regops/dossier-flow-api/internal/models"

// InboxItem pairs a pending-work row with its SLA clock so dashboards sort by
// urgency without a second round trip.
type InboxItem struct {
	models.InboxEntry
	SLA models.SLAClock `json:"sla"`
}
