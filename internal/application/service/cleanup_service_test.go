package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_PurgesByAge(t *testing.T) {
	now := time.Now().UTC()
	anomalies := newFakeAnomalyRepo(
		&entity.AnomalyDetection{ID: "old", DetectedAt: now.Add(-100 * 24 * time.Hour)},
		&entity.AnomalyDetection{ID: "recent", DetectedAt: now.Add(-time.Hour)},
	)
	webhooks := &fakeWebhookRepo{}

	svc := NewCleanupApplicationService(anomalies, webhooks, &config.CleanupConfig{
		AnomalyRetention: 90 * 24 * time.Hour,
		LogRetention:     30 * 24 * time.Hour,
	}, "", testLogger())

	details := svc.Sweep(context.Background())
	assert.Equal(t, 1, details["anomalies_removed"])
	assert.Equal(t, 7, details["delivery_logs_removed"])
	assert.Equal(t, 1, webhooks.purged)

	// Purge is unconditional on age; the recent anomaly survives.
	remaining, err := anomalies.ListPendingSince(context.Background(), now.Add(-200*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].ID)
}

func TestSweep_RemovesExpiredReportFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "stale.csv")
	freshFile := filepath.Join(dir, "fresh.csv")
	require.NoError(t, os.WriteFile(oldFile, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(freshFile, []byte("b"), 0o644))

	stale := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, stale, stale))

	svc := NewCleanupApplicationService(newFakeAnomalyRepo(), &fakeWebhookRepo{}, &config.CleanupConfig{
		AnomalyRetention: 90 * 24 * time.Hour,
		LogRetention:     30 * 24 * time.Hour,
	}, dir, testLogger())

	details := svc.Sweep(context.Background())
	assert.Equal(t, 1, details["report_files_removed"])

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}
