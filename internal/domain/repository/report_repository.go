package repository

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
)

// ReportRepository defines the interface for report configs and executions
type ReportRepository interface {
	// DueConfigs returns active configs with next_run <= now.
	DueConfigs(ctx context.Context, now time.Time) ([]*entity.AutomatedReportConfig, error)

	// GetConfig retrieves a config by id, ErrNotFound when absent.
	GetConfig(ctx context.Context, id string) (*entity.AutomatedReportConfig, error)

	// SaveConfig persists schedule updates (last_run, next_run).
	SaveConfig(ctx context.Context, cfg *entity.AutomatedReportConfig) error

	// CreateExecution persists a new execution row.
	CreateExecution(ctx context.Context, exec *entity.ReportExecution) error

	// UpdateExecution persists status transitions. Terminal rows are never
	// updated again.
	UpdateExecution(ctx context.Context, exec *entity.ReportExecution) error
}
