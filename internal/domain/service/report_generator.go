package service

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// ReportGenerator is the report generation collaborator
type ReportGenerator interface {
	// Generate produces the report files for a request and returns their
	// locations plus processing metrics.
	Generate(ctx context.Context, req *entity.ReportRequest) (*entity.ReportResult, error)
}

// Distributor is the report distribution collaborator (email/S3 delivery)
type Distributor interface {
	// Distribute delivers generated files to the config's recipients.
	Distribute(ctx context.Context, cfg *entity.AutomatedReportConfig, files map[string]string) (*entity.DistributionResult, error)
}
