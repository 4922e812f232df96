package repository

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
)

// WebhookRepository defines the interface for webhook endpoint config and
// delivery logs
type WebhookRepository interface {
	// ActiveEndpoints returns the endpoints eligible for delivery.
	ActiveEndpoints(ctx context.Context) ([]*entity.WebhookEndpoint, error)

	// LogDelivery records one delivery attempt outcome.
	LogDelivery(ctx context.Context, log *entity.WebhookDeliveryLog) error

	// PurgeLogsBefore deletes delivery logs sent before the cutoff,
	// returning the number removed.
	PurgeLogsBefore(ctx context.Context, cutoff time.Time) (int, error)
}
