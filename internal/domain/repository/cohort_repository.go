package repository

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
)

// CohortRepository defines the interface for retention cohort storage
type CohortRepository interface {
	// Upsert creates or overwrites the cell identified by
	// (cohort_date, period_type, period_number).
	Upsert(ctx context.Context, cohort *entity.RetentionCohort) error

	// Get retrieves one cohort cell, ErrNotFound when absent.
	Get(ctx context.Context, cohortDate time.Time, periodType entity.PeriodType, periodNumber int) (*entity.RetentionCohort, error)
}
