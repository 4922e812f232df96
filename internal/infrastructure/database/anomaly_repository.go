package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ClickHouseAnomalyRepository implements AnomalyRepository. Status
// transitions are versioned inserts into a ReplacingMergeTree keyed by id;
// exclusivity across concurrent runs comes from the ClaimStore, not from
// this table.
type ClickHouseAnomalyRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseAnomalyRepository creates a new anomaly repository
func NewClickHouseAnomalyRepository(client *ClickHouseClient, logger *logger.Logger) repository.AnomalyRepository {
	return &ClickHouseAnomalyRepository{
		client: client,
		logger: logger.WithComponent("anomaly-repo"),
	}
}

// Insert persists a newly detected anomaly.
func (r *ClickHouseAnomalyRepository) Insert(ctx context.Context, a *entity.AnomalyDetection) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal anomaly data for %s: %w", a.ID, err)
	}

	query := `
		INSERT INTO anomalies (
			id, anomaly_type, severity, confidence_score,
			status, data, tx_hash, detected_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = r.client.Conn().Exec(ctx, query,
		a.ID, a.AnomalyType, string(a.Severity), a.ConfidenceScore,
		string(a.Status), string(data), a.TxHash, a.DetectedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert anomaly %s: %w", a.ID, err)
	}
	return nil
}

// ListPendingSince returns pending anomalies detected at or after the
// given time, oldest first.
func (r *ClickHouseAnomalyRepository) ListPendingSince(ctx context.Context, since time.Time) ([]*entity.AnomalyDetection, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT id, anomaly_type, severity, confidence_score,
		       status, data, tx_hash, detected_at
		FROM anomalies FINAL
		WHERE status = 'pending' AND detected_at >= ?
		ORDER BY detected_at ASC
	`
	rows, err := r.client.Conn().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []*entity.AnomalyDetection
	for rows.Next() {
		a := &entity.AnomalyDetection{}
		var severity, status, data string
		if err := rows.Scan(&a.ID, &a.AnomalyType, &severity, &a.ConfidenceScore,
			&status, &data, &a.TxHash, &a.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Severity = entity.Severity(severity)
		a.Status = entity.AnomalyStatus(status)
		if data != "" {
			if err := json.Unmarshal([]byte(data), &a.Data); err != nil {
				r.logger.Warn("Failed to decode anomaly data",
					zap.String("anomaly_id", a.ID), zap.Error(err))
			}
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

// UpdateStatus transitions an anomaly's status by inserting a newer version
// of its row.
func (r *ClickHouseAnomalyRepository) UpdateStatus(ctx context.Context, id string, status entity.AnomalyStatus) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO anomalies
		SELECT id, anomaly_type, severity, confidence_score,
		       ? AS status, data, tx_hash, detected_at, ? AS updated_at
		FROM anomalies FINAL
		WHERE id = ?
	`
	if err := r.client.Conn().Exec(ctx, query, string(status), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update anomaly %s status to %s: %w", id, status, err)
	}
	return nil
}

// PurgeBefore deletes anomalies detected before the cutoff, regardless of
// status or delivery outcome.
func (r *ClickHouseAnomalyRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	var count uint64
	countQuery := `SELECT count() FROM anomalies FINAL WHERE detected_at < ?`
	if err := r.client.Conn().QueryRow(ctx, countQuery, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count purgeable anomalies: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := r.client.Conn().Exec(ctx, `DELETE FROM anomalies WHERE detected_at < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to purge anomalies: %w", err)
	}
	return int(count), nil
}
