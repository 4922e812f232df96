package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// CleanupApplicationService runs the retention sweeps: old anomaly records,
// old delivery logs and generated report files past their retention. Each
// purge is independent; a failure in one never blocks the others, and the
// sweep converges across reruns because boundaries are fixed cutoffs.
type CleanupApplicationService struct {
	anomalies  repository.AnomalyRepository
	webhooks   repository.WebhookRepository
	config     *config.CleanupConfig
	reportsDir string
	logger     *logger.Logger
}

// NewCleanupApplicationService creates a new cleanup application service
func NewCleanupApplicationService(
	anomalies repository.AnomalyRepository,
	webhooks repository.WebhookRepository,
	cfg *config.CleanupConfig,
	reportsDir string,
	logger *logger.Logger,
) *CleanupApplicationService {
	return &CleanupApplicationService{
		anomalies:  anomalies,
		webhooks:   webhooks,
		config:     cfg,
		reportsDir: reportsDir,
		logger:     logger.WithComponent("cleanup-service"),
	}
}

// Sweep purges expired records and files, returning per-target counts.
func (s *CleanupApplicationService) Sweep(ctx context.Context) map[string]interface{} {
	now := time.Now().UTC()
	details := make(map[string]interface{})

	anomalies, err := s.anomalies.PurgeBefore(ctx, now.Add(-s.config.AnomalyRetention))
	if err != nil {
		s.logger.Error("Anomaly purge failed", zap.Error(err))
		details["anomaly_purge_error"] = err.Error()
	} else {
		details["anomalies_removed"] = anomalies
	}

	logs, err := s.webhooks.PurgeLogsBefore(ctx, now.Add(-s.config.LogRetention))
	if err != nil {
		s.logger.Error("Delivery log purge failed", zap.Error(err))
		details["log_purge_error"] = err.Error()
	} else {
		details["delivery_logs_removed"] = logs
	}

	files := s.purgeReportFiles(now.Add(-s.config.LogRetention))
	details["report_files_removed"] = files

	s.logger.Info("Cleanup sweep complete",
		zap.Any("details", details))
	return details
}

// purgeReportFiles removes generated report files older than the cutoff.
// Distribution keeps its own copies; local files are disposable.
func (s *CleanupApplicationService) purgeReportFiles(cutoff time.Time) int {
	if s.reportsDir == "" {
		return 0
	}
	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Report dir scan failed", zap.Error(err))
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.reportsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Report file remove failed",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}
