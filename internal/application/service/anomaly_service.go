package service

import (
	"context"

	"nft-analytics-pipeline/internal/domain/repository"
	domainService "nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// DetectionApplicationService orchestrates anomaly detection runs: it
// executes the engine, persists every result with status pending and then
// kicks the notification pipeline so alerts go out without waiting for the
// next webhook tick.
type DetectionApplicationService struct {
	engine    domainService.DetectionEngine
	anomalies repository.AnomalyRepository
	notifier  *NotificationApplicationService
	logger    *logger.Logger
}

// NewDetectionApplicationService creates a new detection application service
func NewDetectionApplicationService(
	engine domainService.DetectionEngine,
	anomalies repository.AnomalyRepository,
	notifier *NotificationApplicationService,
	logger *logger.Logger,
) *DetectionApplicationService {
	return &DetectionApplicationService{
		engine:    engine,
		anomalies: anomalies,
		notifier:  notifier,
		logger:    logger.WithComponent("detection-service"),
	}
}

// RunDetection executes one detection pass. An empty detectionType runs
// every detector. Persistence failures are isolated per anomaly.
func (s *DetectionApplicationService) RunDetection(ctx context.Context, detectionType string) (found, failed int, err error) {
	results, err := s.engine.RunDetection(ctx, detectionType)
	if err != nil {
		return 0, 0, err
	}

	for _, anomaly := range results {
		if err := s.anomalies.Insert(ctx, anomaly); err != nil {
			failed++
			s.logger.Error("Anomaly insert failed",
				zap.String("anomaly_id", anomaly.ID),
				zap.String("anomaly_type", anomaly.AnomalyType),
				zap.Error(err))
			continue
		}
		found++
	}

	s.logger.Info("Detection run complete",
		zap.String("detection_type", detectionType),
		zap.Int("found", found),
		zap.Int("failed", failed))

	if found > 0 {
		if _, _, err := s.notifier.TriggerPending(ctx); err != nil {
			s.logger.Error("Post-detection notification trigger failed", zap.Error(err))
		}
	}
	return found, failed, nil
}
