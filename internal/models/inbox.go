package models

import "time"

// InboxEntry is one row of a pending-work projection: an open timeline
// segment joined with the application identity fields. Missing reference data
// degrades to display fallbacks instead of failing the projection.
type InboxEntry struct {
	SegmentID         int64     `db:"segment_id" json:"segmentId"`
	ApplicationID     int64     `db:"application_id" json:"applicationId"`
	ApplicationNumber string    `db:"application_number" json:"applicationNumber"`
	ApplicationType   string    `db:"application_type" json:"applicationType"`
	CompanyName       string    `db:"company_name" json:"companyName"`
	Division          string    `db:"division" json:"division"`
	Point             string    `db:"point" json:"point"`
	StaffID           *string   `db:"staff_id" json:"staffId,omitempty"`
	StaffName         string    `db:"staff_name" json:"staffName"`
	StartTime         time.Time `db:"start_time" json:"startTime"`
}

// SLAClock is the derived urgency view over one open segment.
type SLAClock struct {
	SegmentID     int64         `json:"segmentId"`
	ApplicationID int64         `json:"applicationId"`
	Division      string        `json:"division"`
	Point         string        `json:"point"`
	StaffID       *string       `json:"staffId,omitempty"`
	StartTime     time.Time     `json:"startTime"`
	Budget        time.Duration `json:"budget"`
	Elapsed       time.Duration `json:"elapsed"`
	Remaining     time.Duration `json:"remaining"`
	Breached      bool          `json:"breached"`
}

// StaffPerformance aggregates closed segments for one reviewer.
type StaffPerformance struct {
	StaffID        string        `db:"staff_id" json:"staffId"`
	StaffName      string        `db:"staff_name" json:"staffName"`
	Division       string        `db:"division" json:"division"`
	ClosedSegments int           `db:"closed_segments" json:"closedSegments"`
	TotalTime      time.Duration `json:"totalTime"`
	AverageTime    time.Duration `json:"averageTime"`
	TotalSeconds   float64       `db:"total_seconds" json:"-"`
}
