package detection

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Detector type names accepted by RunDetection.
const (
	DetectHighFrequency = "high_frequency"
	DetectVolumeSpike   = "volume_spike"
	DetectWashTrading   = "wash_trading"
)

// HeuristicEngine is the default DetectionEngine. It scores recently
// active addresses against the same thresholds the behavior profiles use
// and emits one pending anomaly per (address, detector) hit. Heavier
// engines can replace it behind the DetectionEngine interface without
// touching the orchestration.
type HeuristicEngine struct {
	events  repository.EventRepository
	riskCfg entity.RiskConfig
	window  time.Duration
	logger  *logger.Logger
}

// NewHeuristicEngine creates a new heuristic detection engine
func NewHeuristicEngine(
	events repository.EventRepository,
	riskCfg entity.RiskConfig,
	window time.Duration,
	logger *logger.Logger,
) service.DetectionEngine {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &HeuristicEngine{
		events:  events,
		riskCfg: riskCfg,
		window:  window,
		logger:  logger.WithComponent("detection-engine"),
	}
}

// RunDetection scans addresses active inside the window. An empty
// detectionType runs every detector.
func (e *HeuristicEngine) RunDetection(ctx context.Context, detectionType string) ([]*entity.AnomalyDetection, error) {
	now := time.Now().UTC()
	addresses, err := e.events.ActiveAddresses(ctx, now.Add(-e.window))
	if err != nil {
		return nil, fmt.Errorf("failed to list active addresses: %w", err)
	}

	var results []*entity.AnomalyDetection
	for _, address := range addresses {
		txs, err := e.events.TransactionsForAddress(ctx, address)
		if err != nil {
			e.logger.Error("Address scan failed",
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		profile := entity.ComputeProfile(address, txs, e.riskCfg, now)

		if runDetector(detectionType, DetectHighFrequency) &&
			profile.TransactionFrequency > e.riskCfg.HighFrequencyPerDay {
			results = append(results, e.newAnomaly(DetectHighFrequency, address, now, map[string]interface{}{
				"wallet_address":        address,
				"transaction_frequency": profile.TransactionFrequency,
				"threshold":             e.riskCfg.HighFrequencyPerDay,
			}))
		}
		if runDetector(detectionType, DetectVolumeSpike) &&
			profile.TotalVolume > e.riskCfg.HighVolumeThreshold {
			results = append(results, e.newAnomaly(DetectVolumeSpike, address, now, map[string]interface{}{
				"wallet_address": address,
				"total_volume":   profile.TotalVolume,
				"threshold":      e.riskCfg.HighVolumeThreshold,
			}))
		}
		if runDetector(detectionType, DetectWashTrading) &&
			len(profile.PreferredCollections) <= e.riskCfg.WashTradeMaxCollections &&
			profile.TotalTransactions > int64(e.riskCfg.WashTradeMinTransactions) {
			results = append(results, e.newAnomaly(DetectWashTrading, address, now, map[string]interface{}{
				"wallet_address":     address,
				"collections":        profile.PreferredCollections,
				"total_transactions": profile.TotalTransactions,
			}))
		}
	}

	e.logger.Info("Detection scan complete",
		zap.String("detection_type", detectionType),
		zap.Int("addresses", len(addresses)),
		zap.Int("anomalies", len(results)))
	return results, nil
}

func (e *HeuristicEngine) newAnomaly(anomalyType, address string, now time.Time, data map[string]interface{}) *entity.AnomalyDetection {
	return &entity.AnomalyDetection{
		ID:              uuid.NewString(),
		AnomalyType:     anomalyType,
		Severity:        severityFor(anomalyType),
		ConfidenceScore: 0.7,
		Status:          entity.AnomalyPending,
		Data:            data,
		DetectedAt:      now,
	}
}

func severityFor(anomalyType string) entity.Severity {
	switch anomalyType {
	case DetectWashTrading:
		return entity.SeverityHigh
	case DetectVolumeSpike:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}

func runDetector(requested, detector string) bool {
	return requested == "" || requested == detector
}
