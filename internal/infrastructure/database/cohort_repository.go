package database

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// ClickHouseCohortRepository implements CohortRepository. Identity is
// (cohort_date, period_type, period_number); the ReplacingMergeTree key
// makes recomputation overwrite in place.
type ClickHouseCohortRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseCohortRepository creates a new cohort repository
func NewClickHouseCohortRepository(client *ClickHouseClient, logger *logger.Logger) repository.CohortRepository {
	return &ClickHouseCohortRepository{
		client: client,
		logger: logger.WithComponent("cohort-repo"),
	}
}

// Upsert creates or overwrites one cohort cell.
func (r *ClickHouseCohortRepository) Upsert(ctx context.Context, c *entity.RetentionCohort) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO retention_cohorts (
			cohort_date, period_type, period_number,
			total_users, retained_users, retention_rate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.client.Conn().Exec(ctx, query,
		c.CohortDate, string(c.PeriodType), c.PeriodNumber,
		c.TotalUsers, c.RetainedUsers, c.RetentionRate, c.CreatedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert cohort %s/%s/%d: %w",
			c.CohortDate.Format("2006-01-02"), c.PeriodType, c.PeriodNumber, err)
	}
	return nil
}

// Get retrieves one cohort cell.
func (r *ClickHouseCohortRepository) Get(ctx context.Context, cohortDate time.Time, periodType entity.PeriodType, periodNumber int) (*entity.RetentionCohort, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT cohort_date, period_type, period_number,
		       total_users, retained_users, retention_rate, created_at
		FROM retention_cohorts FINAL
		WHERE cohort_date = ? AND period_type = ? AND period_number = ?
	`
	c := &entity.RetentionCohort{}
	var pt string
	err := r.client.Conn().QueryRow(ctx, query, cohortDate, string(periodType), periodNumber).Scan(
		&c.CohortDate, &pt, &c.PeriodNumber,
		&c.TotalUsers, &c.RetainedUsers, &c.RetentionRate, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cohort: %w", err)
	}
	c.PeriodType = entity.PeriodType(pt)
	return c, nil
}
