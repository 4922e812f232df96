package database

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// ClickHouseReportRepository implements ReportRepository
type ClickHouseReportRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseReportRepository creates a new report repository
func NewClickHouseReportRepository(client *ClickHouseClient, logger *logger.Logger) repository.ReportRepository {
	return &ClickHouseReportRepository{
		client: client,
		logger: logger.WithComponent("report-repo"),
	}
}

const reportConfigColumns = `
	id, report_type, frequency, recipients, format,
	last_run, next_run, is_active, s3_bucket, s3_prefix,
	template_config, created_at
`

// DueConfigs returns active configs with next_run <= now.
func (r *ClickHouseReportRepository) DueConfigs(ctx context.Context, now time.Time) ([]*entity.AutomatedReportConfig, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT ` + reportConfigColumns + `
		FROM report_configs FINAL
		WHERE is_active = 1 AND next_run <= ?
		ORDER BY next_run ASC
	`
	rows, err := r.client.Conn().Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due report configs: %w", err)
	}
	defer rows.Close()

	var configs []*entity.AutomatedReportConfig
	for rows.Next() {
		cfg, err := scanReportConfig(rows.Scan)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// GetConfig retrieves a config by id.
func (r *ClickHouseReportRepository) GetConfig(ctx context.Context, id string) (*entity.AutomatedReportConfig, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT ` + reportConfigColumns + `
		FROM report_configs FINAL
		WHERE id = ?
	`
	cfg, err := scanReportConfig(r.client.Conn().QueryRow(ctx, query, id).Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report config %s: %w", id, err)
	}
	return cfg, nil
}

func scanReportConfig(scan func(...interface{}) error) (*entity.AutomatedReportConfig, error) {
	cfg := &entity.AutomatedReportConfig{}
	var frequency, format string
	var isActive uint8
	err := scan(&cfg.ID, &cfg.ReportType, &frequency, &cfg.Recipients, &format,
		&cfg.LastRun, &cfg.NextRun, &isActive, &cfg.S3Bucket, &cfg.S3Prefix,
		&cfg.TemplateConfig, &cfg.CreatedAt)
	if err != nil {
		return nil, err
	}
	cfg.Frequency = entity.ReportFrequency(frequency)
	cfg.Format = entity.ReportFormat(format)
	cfg.IsActive = isActive == 1
	return cfg, nil
}

// SaveConfig persists schedule updates as a newer row version.
func (r *ClickHouseReportRepository) SaveConfig(ctx context.Context, cfg *entity.AutomatedReportConfig) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	isActive := uint8(0)
	if cfg.IsActive {
		isActive = 1
	}

	query := `
		INSERT INTO report_configs (
			id, report_type, frequency, recipients, format,
			last_run, next_run, is_active, s3_bucket, s3_prefix,
			template_config, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.client.Conn().Exec(ctx, query,
		cfg.ID, cfg.ReportType, string(cfg.Frequency), cfg.Recipients, string(cfg.Format),
		cfg.LastRun, cfg.NextRun, isActive, cfg.S3Bucket, cfg.S3Prefix,
		cfg.TemplateConfig, cfg.CreatedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save report config %s: %w", cfg.ID, err)
	}
	return nil
}

// CreateExecution persists a new execution row.
func (r *ClickHouseReportRepository) CreateExecution(ctx context.Context, exec *entity.ReportExecution) error {
	return r.writeExecution(ctx, exec)
}

// UpdateExecution persists a status transition as a newer row version.
func (r *ClickHouseReportRepository) UpdateExecution(ctx context.Context, exec *entity.ReportExecution) error {
	return r.writeExecution(ctx, exec)
}

func (r *ClickHouseReportRepository) writeExecution(ctx context.Context, exec *entity.ReportExecution) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO report_executions (
			id, report_id, report_type, status, started_at, completed_at,
			error_message, pdf_file_path, csv_file_path,
			data_points_processed, recipients_notified, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.client.Conn().Exec(ctx, query,
		exec.ID, exec.ReportID, exec.ReportType, string(exec.Status),
		exec.StartedAt, exec.CompletedAt, exec.ErrorMessage,
		exec.PDFFilePath, exec.CSVFilePath,
		exec.DataPointsProcessed, exec.RecipientsNotified, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write report execution %s: %w", exec.ID, err)
	}
	return nil
}
