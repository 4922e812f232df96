package service

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// RetentionApplicationService recomputes retention cohort cells from the
// event store. Cell identity is (cohort_date, period_type, period_number);
// recomputation overwrites in place, so the sweep is safe to rerun.
type RetentionApplicationService struct {
	activity repository.UserActivityRepository
	cohorts  repository.CohortRepository
	logger   *logger.Logger
}

// NewRetentionApplicationService creates a new retention application service
func NewRetentionApplicationService(
	activity repository.UserActivityRepository,
	cohorts repository.CohortRepository,
	logger *logger.Logger,
) *RetentionApplicationService {
	return &RetentionApplicationService{
		activity: activity,
		cohorts:  cohorts,
		logger:   logger.WithComponent("retention-service"),
	}
}

var allPeriodTypes = []entity.PeriodType{
	entity.PeriodDaily,
	entity.PeriodWeekly,
	entity.PeriodMonthly,
}

// RecomputeCohorts walks every tracked cohort of every period type and
// rewrites its cells up to the current period. Cohort membership is fixed
// by first-activity date; only retained counts move between runs.
func (s *RetentionApplicationService) RecomputeCohorts(ctx context.Context) (cells, failed int, err error) {
	now := time.Now().UTC()

	for _, periodType := range allPeriodTypes {
		written, errored := s.recomputeType(ctx, periodType, now)
		cells += written
		failed += errored
	}

	s.logger.Info("Retention sweep complete",
		zap.Int("cells", cells),
		zap.Int("failed", failed))
	return cells, failed, nil
}

func (s *RetentionApplicationService) recomputeType(ctx context.Context, periodType entity.PeriodType, now time.Time) (cells, failed int) {
	delta := periodType.Delta()
	maxPeriods := periodType.MaxPeriods()
	anchor := truncateDay(now)

	for i := 0; i < maxPeriods; i++ {
		cohortStart := anchor.Add(-time.Duration(i) * delta)
		cohortEnd := cohortStart.Add(delta)

		users, err := s.activity.CohortUsers(ctx, cohortStart, cohortEnd)
		if err != nil {
			failed++
			s.logger.Error("Cohort membership query failed",
				zap.String("period_type", string(periodType)),
				zap.Time("cohort_date", cohortStart),
				zap.Error(err))
			continue
		}
		if len(users) == 0 {
			continue
		}

		for period := 0; period < maxPeriods; period++ {
			windowStart := cohortStart.Add(time.Duration(period) * delta)
			if windowStart.After(now) {
				break
			}
			windowEnd := windowStart.Add(delta)

			retained, err := s.activity.CountActive(ctx, users, windowStart, windowEnd)
			if err != nil {
				failed++
				s.logger.Error("Retained count query failed",
					zap.String("period_type", string(periodType)),
					zap.Time("cohort_date", cohortStart),
					zap.Int("period", period),
					zap.Error(err))
				continue
			}

			cohort := &entity.RetentionCohort{
				CohortDate:    cohortStart,
				PeriodType:    periodType,
				PeriodNumber:  period,
				TotalUsers:    len(users),
				RetainedUsers: retained,
				CreatedAt:     now,
			}
			cohort.CalculateRetentionRate()

			if err := s.cohorts.Upsert(ctx, cohort); err != nil {
				failed++
				s.logger.Error("Cohort upsert failed",
					zap.String("period_type", string(periodType)),
					zap.Time("cohort_date", cohortStart),
					zap.Int("period", period),
					zap.Error(err))
				continue
			}
			cells++
		}
	}
	return cells, failed
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
