package service

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// DetectionEngine is the anomaly detection collaborator. The heuristics
// behind it are swappable; this pipeline only schedules runs, persists the
// results and hands them to the notification pipeline.
type DetectionEngine interface {
	// RunDetection executes detection and returns newly found anomalies,
	// each with status pending. An empty detectionType runs every detector.
	RunDetection(ctx context.Context, detectionType string) ([]*entity.AnomalyDetection, error)
}
