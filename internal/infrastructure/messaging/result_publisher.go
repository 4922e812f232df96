package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// NATSResultPublisher implements ResultPublisher over NATS subjects.
// Each job result is published under <result_subject>.<job>.
type NATSResultPublisher struct {
	client *NATSClient
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSResultPublisher creates a new result publisher
func NewNATSResultPublisher(client *NATSClient, cfg *config.NATSConfig, logger *logger.Logger) service.ResultPublisher {
	return &NATSResultPublisher{
		client: client,
		config: cfg,
		logger: logger.WithComponent("result-publisher"),
	}
}

// PublishJobResult publishes a job run record. A nil connection (NATS
// disabled) is a no-op, not an error: results are operational telemetry,
// never load-bearing.
func (p *NATSResultPublisher) PublishJobResult(ctx context.Context, result *entity.JobResult) error {
	if p.client.Conn() == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.config.ResultSubject, result.Job)
	if err := p.client.Conn().Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish job result to %s: %w", subject, err)
	}
	return nil
}
