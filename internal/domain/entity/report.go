package entity

import (
	"time"
)

// ReportFrequency is how often an automated report runs
type ReportFrequency string

const (
	FrequencyDaily   ReportFrequency = "daily"
	FrequencyWeekly  ReportFrequency = "weekly"
	FrequencyMonthly ReportFrequency = "monthly"
)

// ReportFormat selects the generated output files
type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatCSV  ReportFormat = "csv"
	FormatBoth ReportFormat = "both"
)

// ExecutionStatus is the report execution lifecycle
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// AutomatedReportConfig represents a scheduled report definition
type AutomatedReportConfig struct {
	ID             string            `json:"id"`
	ReportType     string            `json:"report_type"`
	Frequency      ReportFrequency   `json:"frequency"`
	Recipients     []string          `json:"recipients"`
	Format         ReportFormat      `json:"format"`
	LastRun        *time.Time        `json:"last_run,omitempty"`
	NextRun        time.Time         `json:"next_run"`
	IsActive       bool              `json:"is_active"`
	S3Bucket       string            `json:"s3_bucket,omitempty"`
	S3Prefix       string            `json:"s3_prefix,omitempty"`
	TemplateConfig map[string]string `json:"template_config,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CalculateNextRun recomputes NextRun from LastRun and the frequency.
// Monthly advances exactly one calendar month: jump to day 28, add 4 days
// (always lands in the following month), then clamp back to the original
// day or the month's last valid day, whichever is smaller. Month-end dates
// degrade gracefully (Jan 31 -> Feb 28/29), never rolling into March.
func (r *AutomatedReportConfig) CalculateNextRun() {
	if r.LastRun == nil {
		r.NextRun = time.Now().UTC()
		return
	}

	last := *r.LastRun
	switch r.Frequency {
	case FrequencyDaily:
		r.NextRun = last.AddDate(0, 0, 1)
	case FrequencyWeekly:
		r.NextRun = last.AddDate(0, 0, 7)
	case FrequencyMonthly:
		anchor := time.Date(last.Year(), last.Month(), 28,
			last.Hour(), last.Minute(), last.Second(), last.Nanosecond(), last.Location())
		next := anchor.AddDate(0, 0, 4)
		lastDay := daysInMonth(next.Year(), next.Month())
		day := last.Day()
		if day > lastDay {
			day = lastDay
		}
		r.NextRun = time.Date(next.Year(), next.Month(), day,
			last.Hour(), last.Minute(), last.Second(), last.Nanosecond(), last.Location())
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ReportExecution represents one generation attempt. A row is created at
// generation start and its terminal state is set exactly once.
type ReportExecution struct {
	ID                  string          `json:"id"`
	ReportID            string          `json:"report_id"` // empty for ad-hoc runs
	ReportType          string          `json:"report_type"`
	Status              ExecutionStatus `json:"status"`
	StartedAt           time.Time       `json:"started_at"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	PDFFilePath         string          `json:"pdf_file_path,omitempty"`
	CSVFilePath         string          `json:"csv_file_path,omitempty"`
	DataPointsProcessed int             `json:"data_points_processed"`
	RecipientsNotified  int             `json:"recipients_notified"`
}

// ReportRequest is the input to the generation collaborator, covering both
// scheduled configs and ad-hoc invocations.
type ReportRequest struct {
	ReportType     string            `json:"report_type"`
	Format         ReportFormat      `json:"format"`
	TemplateConfig map[string]string `json:"template_config,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
	AdHoc          bool              `json:"ad_hoc"`
}

// ReportResult is the generation collaborator's output
type ReportResult struct {
	Files               map[string]string `json:"files"` // format -> path
	DataPointsProcessed int               `json:"data_points_processed"`
}

// DistributionResult is the distribution collaborator's output
type DistributionResult struct {
	RecipientsNotified int    `json:"recipients_notified"`
	Status             string `json:"status"`
}
