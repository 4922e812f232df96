package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dueConfig(id, reportType string) *entity.AutomatedReportConfig {
	last := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	return &entity.AutomatedReportConfig{
		ID:         id,
		ReportType: reportType,
		Frequency:  entity.FrequencyDaily,
		Format:     entity.FormatCSV,
		Recipients: []string{"ops@example.com"},
		LastRun:    &last,
		NextRun:    last.AddDate(0, 0, 1),
		IsActive:   true,
	}
}

func findExecution(t *testing.T, repo *fakeReportRepo, reportID string) *entity.ReportExecution {
	t.Helper()
	for _, exec := range repo.executions {
		if exec.ReportID == reportID {
			return exec
		}
	}
	t.Fatalf("no execution recorded for report %s", reportID)
	return nil
}

func TestRunDue_CompletesAndAdvancesSchedule(t *testing.T) {
	repo := newFakeReportRepo()
	repo.due = []*entity.AutomatedReportConfig{dueConfig("r1", "market_overview")}
	dist := &fakeDistributor{}

	svc := NewReportApplicationService(repo, &fakeGenerator{}, dist, testLogger())
	generated, failed, err := svc.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, generated)
	assert.Zero(t, failed)

	exec := findExecution(t, repo, "r1")
	assert.Equal(t, entity.ExecutionCompleted, exec.Status)
	require.NotNil(t, exec.CompletedAt)
	assert.Equal(t, 42, exec.DataPointsProcessed)
	assert.Equal(t, "/tmp/report.csv", exec.CSVFilePath)
	assert.Equal(t, 1, exec.RecipientsNotified)

	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]
	require.NotNil(t, saved.LastRun)
	assert.Equal(t, saved.LastRun.AddDate(0, 0, 1), saved.NextRun)
}

func TestRunDue_IsolatesFailingReport(t *testing.T) {
	repo := newFakeReportRepo()
	repo.due = []*entity.AutomatedReportConfig{
		dueConfig("bad", "broken_type"),
		dueConfig("good", "market_overview"),
	}
	gen := &fakeGenerator{failFor: map[string]error{"broken_type": errors.New("no data source")}}

	svc := NewReportApplicationService(repo, gen, &fakeDistributor{}, testLogger())
	generated, failed, err := svc.RunDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, generated)
	assert.Equal(t, 1, failed)

	badExec := findExecution(t, repo, "bad")
	assert.Equal(t, entity.ExecutionFailed, badExec.Status)
	assert.Contains(t, badExec.ErrorMessage, "no data source")

	goodExec := findExecution(t, repo, "good")
	assert.Equal(t, entity.ExecutionCompleted, goodExec.Status)

	// The failed report keeps its schedule so the next tick retries it.
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "good", repo.saved[0].ID)
}

func TestRunDue_DistributionFailureMarksFailed(t *testing.T) {
	repo := newFakeReportRepo()
	repo.due = []*entity.AutomatedReportConfig{dueConfig("r1", "market_overview")}
	dist := &fakeDistributor{err: errors.New("relay unavailable")}

	svc := NewReportApplicationService(repo, &fakeGenerator{}, dist, testLogger())
	generated, failed, err := svc.RunDue(context.Background())
	require.NoError(t, err)

	assert.Zero(t, generated)
	assert.Equal(t, 1, failed)
	exec := findExecution(t, repo, "r1")
	assert.Equal(t, entity.ExecutionFailed, exec.Status)
	assert.Empty(t, repo.saved)
}

func TestGenerateSingle(t *testing.T) {
	repo := newFakeReportRepo()
	repo.configs["r1"] = dueConfig("r1", "user_activity")

	svc := NewReportApplicationService(repo, &fakeGenerator{}, &fakeDistributor{}, testLogger())
	exec, err := svc.GenerateSingle(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionCompleted, exec.Status)
	assert.Equal(t, "r1", exec.ReportID)

	_, err = svc.GenerateSingle(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGenerateAdhoc(t *testing.T) {
	repo := newFakeReportRepo()
	dist := &fakeDistributor{}

	svc := NewReportApplicationService(repo, &fakeGenerator{}, dist, testLogger())

	t.Run("without distribution", func(t *testing.T) {
		exec, err := svc.GenerateAdhoc(context.Background(), "sales_performance", entity.FormatCSV, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, entity.ExecutionCompleted, exec.Status)
		assert.Empty(t, exec.ReportID)
		assert.Zero(t, dist.calls)
	})

	t.Run("with distribution", func(t *testing.T) {
		exec, err := svc.GenerateAdhoc(context.Background(), "sales_performance", entity.FormatCSV, nil,
			[]string{"a@example.com", "b@example.com"})
		require.NoError(t, err)
		assert.Equal(t, entity.ExecutionCompleted, exec.Status)
		assert.Equal(t, 2, exec.RecipientsNotified)
		assert.Equal(t, 1, dist.calls)
	})
}
