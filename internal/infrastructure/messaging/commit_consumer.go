package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// CommitHandler is invoked for every commit notice received.
type CommitHandler func(ctx context.Context, notice *entity.CommitNotice)

// CommitConsumer subscribes to the event writer's commit notices. The
// writer publishes one notice per committed transaction; the pipeline uses
// them to invalidate snapshot cache keys on the write path instead of any
// implicit model-save signal.
type CommitConsumer struct {
	client  *NATSClient
	sub     *nats.Subscription
	config  *config.NATSConfig
	logger  *logger.Logger
	handler CommitHandler
}

// NewCommitConsumer creates a new commit notice consumer
func NewCommitConsumer(client *NATSClient, cfg *config.NATSConfig, logger *logger.Logger) *CommitConsumer {
	return &CommitConsumer{
		client: client,
		config: cfg,
		logger: logger.WithComponent("commit-consumer"),
	}
}

// Start subscribes with the pipeline's queue group so that one instance
// handles each notice.
func (c *CommitConsumer) Start(ctx context.Context, handler CommitHandler) error {
	if !c.config.Enabled {
		c.logger.Info("NATS is disabled, commit notices will not be consumed")
		return nil
	}
	c.handler = handler

	sub, err := c.client.Conn().QueueSubscribe(c.config.CommitSubject, c.config.ConsumerGroup,
		func(msg *nats.Msg) {
			c.handleMessage(ctx, msg)
		})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.config.CommitSubject, err)
	}

	c.sub = sub
	c.logger.Info("Subscribed to commit notices",
		zap.String("subject", c.config.CommitSubject),
		zap.String("queue_group", c.config.ConsumerGroup))
	return nil
}

// Stop unsubscribes.
func (c *CommitConsumer) Stop() error {
	if c.sub != nil {
		return c.sub.Unsubscribe()
	}
	return nil
}

func (c *CommitConsumer) handleMessage(ctx context.Context, msg *nats.Msg) {
	var notice entity.CommitNotice
	if err := json.Unmarshal(msg.Data, &notice); err != nil {
		c.logger.Error("Failed to decode commit notice", zap.Error(err))
		return
	}

	c.logger.Debug("Received commit notice",
		zap.String("event_type", string(notice.EventType)),
		zap.String("tx_hash", notice.TxHash))

	c.handler(ctx, &notice)
}
