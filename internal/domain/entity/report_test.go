package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNextRun_DailyAndWeekly(t *testing.T) {
	last := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)

	daily := &AutomatedReportConfig{Frequency: FrequencyDaily, LastRun: &last}
	daily.CalculateNextRun()
	assert.Equal(t, last.AddDate(0, 0, 1), daily.NextRun)

	weekly := &AutomatedReportConfig{Frequency: FrequencyWeekly, LastRun: &last}
	weekly.CalculateNextRun()
	assert.Equal(t, last.AddDate(0, 0, 7), weekly.NextRun)
}

func TestCalculateNextRun_Monthly(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		want time.Time
	}{
		{
			name: "mid month",
			last: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 degrades to feb 28",
			last: time.Date(2026, 1, 31, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 28, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 leap year degrades to feb 29",
			last: time.Date(2024, 1, 31, 6, 0, 0, 0, time.UTC),
			want: time.Date(2024, 2, 29, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "aug 31 degrades to sep 30",
			last: time.Date(2026, 8, 31, 23, 45, 0, 0, time.UTC),
			want: time.Date(2026, 9, 30, 23, 45, 0, 0, time.UTC),
		},
		{
			name: "dec rolls into january",
			last: time.Date(2026, 12, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "first of month",
			last: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AutomatedReportConfig{Frequency: FrequencyMonthly, LastRun: &tt.last}
			cfg.CalculateNextRun()
			assert.Equal(t, tt.want, cfg.NextRun)
		})
	}
}

func TestCalculateNextRun_NeverRun(t *testing.T) {
	cfg := &AutomatedReportConfig{Frequency: FrequencyMonthly}
	before := time.Now().UTC()
	cfg.CalculateNextRun()
	after := time.Now().UTC()

	// A config that has never run is due immediately.
	assert.False(t, cfg.NextRun.Before(before))
	assert.False(t, cfg.NextRun.After(after))
}
