package models

import "time"

// ReportKind enumerates supported report types.
type ReportKind string

// ReportKindQMSPerformance aggregates average processing time per reviewer.
const ReportKindQMSPerformance ReportKind = "QMS_PERFORMANCE"

// ReportFormat is the requested output encoding.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "CSV"
	ReportFormatPDF ReportFormat = "PDF"
)

// ReportStatus captures job lifecycle states.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusReady      ReportStatus = "READY"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob tracks one asynchronous report generation request.
type ReportJob struct {
	ID          string       `db:"id" json:"id"`
	Kind        ReportKind   `db:"kind" json:"kind"`
	Format      ReportFormat `db:"format" json:"format"`
	Status      ReportStatus `db:"status" json:"status"`
	FilePath    *string      `db:"file_path" json:"filePath,omitempty"`
	RequestedBy string       `db:"requested_by" json:"requestedBy"`
	Error       *string      `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time   `db:"completed_at" json:"completedAt,omitempty"`
}
