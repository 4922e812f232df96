package database

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// ClickHouseWebhookRepository implements WebhookRepository
type ClickHouseWebhookRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseWebhookRepository creates a new webhook repository
func NewClickHouseWebhookRepository(client *ClickHouseClient, logger *logger.Logger) repository.WebhookRepository {
	return &ClickHouseWebhookRepository{
		client: client,
		logger: logger.WithComponent("webhook-repo"),
	}
}

// ActiveEndpoints returns the endpoints eligible for delivery.
func (r *ClickHouseWebhookRepository) ActiveEndpoints(ctx context.Context) ([]*entity.WebhookEndpoint, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT id, name, url, secret_key, min_severity,
		       anomaly_types, is_active, created_at
		FROM webhook_endpoints FINAL
		WHERE is_active = 1
	`
	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*entity.WebhookEndpoint
	for rows.Next() {
		e := &entity.WebhookEndpoint{}
		var minSeverity string
		var isActive uint8
		if err := rows.Scan(&e.ID, &e.Name, &e.URL, &e.SecretKey, &minSeverity,
			&e.AnomalyTypes, &isActive, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		e.MinSeverity = entity.Severity(minSeverity)
		e.IsActive = isActive == 1
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

// LogDelivery records one delivery attempt outcome.
func (r *ClickHouseWebhookRepository) LogDelivery(ctx context.Context, l *entity.WebhookDeliveryLog) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	l.TruncateBody()

	query := `
		INSERT INTO webhook_delivery_log (
			id, endpoint_id, anomaly_id, outcome,
			status_code, response_body, attempt, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.client.Conn().Exec(ctx, query,
		l.ID, l.EndpointID, l.AnomalyID, string(l.Outcome),
		l.StatusCode, l.ResponseBody, l.Attempt, l.SentAt)
	if err != nil {
		return fmt.Errorf("failed to log delivery for anomaly %s: %w", l.AnomalyID, err)
	}
	return nil
}

// PurgeLogsBefore deletes delivery logs sent before the cutoff.
func (r *ClickHouseWebhookRepository) PurgeLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	var count uint64
	countQuery := `SELECT count() FROM webhook_delivery_log WHERE sent_at < ?`
	if err := r.client.Conn().QueryRow(ctx, countQuery, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count purgeable delivery logs: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := r.client.Conn().Exec(ctx, `DELETE FROM webhook_delivery_log WHERE sent_at < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to purge delivery logs: %w", err)
	}
	return int(count), nil
}
