package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SegmentDetails is the stage-specific payload stored alongside a segment.
type SegmentDetails struct {
	Notes       string `json:"notes,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	FinalStatus string `json:"final_status,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Iteration   int    `json:"iteration,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (d SegmentDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB storage.
func (d *SegmentDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = SegmentDetails{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported segment details type %T", src)
	}
}

// TimelineSegment is one bounded (or currently open) unit of work performed by
// one actor at one stage for one application. Invariant: at most one open
// segment (EndTime nil) per (ApplicationID, Division, Point); a partial unique
// index enforces it in the store.
type TimelineSegment struct {
	ID            int64          `db:"id" json:"id"`
	ApplicationID int64          `db:"application_id" json:"applicationId"`
	StaffID       *string        `db:"staff_id" json:"staffId,omitempty"`
	Division      string         `db:"division" json:"division"`
	Point         string         `db:"point" json:"point"`
	StartTime     time.Time      `db:"start_time" json:"startTime"`
	EndTime       *time.Time     `db:"end_time" json:"endTime,omitempty"`
	Details       SegmentDetails `db:"details" json:"details"`
}

// Open reports whether the segment clock is still running.
func (s *TimelineSegment) Open() bool {
	return s.EndTime == nil
}

// Duration returns the elapsed time of a closed segment, or the time elapsed
// so far relative to now for an open one.
func (s *TimelineSegment) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}
