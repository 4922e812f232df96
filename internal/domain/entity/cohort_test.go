package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRetentionRate(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		retained int
		want     float64
	}{
		{"zero users", 0, 0, 0.00},
		{"quarter retained", 200, 50, 25.00},
		{"full retention", 10, 10, 100.00},
		{"rounds to two decimals", 3, 1, 33.33},
		{"rounds up", 3, 2, 66.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &RetentionCohort{TotalUsers: tt.total, RetainedUsers: tt.retained}
			assert.Equal(t, tt.want, c.CalculateRetentionRate())
			assert.Equal(t, tt.want, c.RetentionRate)
		})
	}
}

func TestPeriodType_Delta(t *testing.T) {
	assert.Equal(t, 24*time.Hour, PeriodDaily.Delta())
	assert.Equal(t, 7*24*time.Hour, PeriodWeekly.Delta())
	// Monthly is a fixed 30 days so cohort identity is stable across runs.
	assert.Equal(t, 30*24*time.Hour, PeriodMonthly.Delta())
}

func TestPeriodType_MaxPeriods(t *testing.T) {
	assert.Equal(t, 30, PeriodDaily.MaxPeriods())
	assert.Equal(t, 12, PeriodWeekly.MaxPeriods())
	assert.Equal(t, 12, PeriodMonthly.MaxPeriods())
}
