package entity

import (
	"math"
	"time"
)

// PeriodType is the retention cohort granularity
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// Delta returns the length of one cohort period. Monthly uses a fixed 30
// days so cohort identity stays stable across recomputations.
func (p PeriodType) Delta() time.Duration {
	switch p {
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// MaxPeriods returns how many periods are tracked per cohort.
func (p PeriodType) MaxPeriods() int {
	if p == PeriodDaily {
		return 30
	}
	return 12
}

// RetentionCohort represents retention for one (cohort, period) cell.
// Identity is (cohort_date, period_type, period_number); recomputation
// overwrites in place.
type RetentionCohort struct {
	CohortDate    time.Time  `json:"cohort_date"`
	PeriodType    PeriodType `json:"period_type"`
	PeriodNumber  int        `json:"period_number"`
	TotalUsers    int        `json:"total_users"`
	RetainedUsers int        `json:"retained_users"`
	RetentionRate float64    `json:"retention_rate"` // percent, 2 decimals
	CreatedAt     time.Time  `json:"created_at"`
}

// CalculateRetentionRate recomputes the derived rate from the two counts.
// Must be called whenever either count changes; never divides by zero.
func (c *RetentionCohort) CalculateRetentionRate() float64 {
	if c.TotalUsers > 0 {
		c.RetentionRate = math.Round(float64(c.RetainedUsers)/float64(c.TotalUsers)*100*100) / 100
	} else {
		c.RetentionRate = 0.00
	}
	return c.RetentionRate
}
