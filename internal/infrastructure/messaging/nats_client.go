package messaging

import (
	"context"
	"fmt"

	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSClient manages the shared NATS connection
type NATSClient struct {
	conn   *nats.Conn
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSClient creates a new NATS client
func NewNATSClient(cfg *config.NATSConfig, logger *logger.Logger) *NATSClient {
	return &NATSClient{
		config: cfg,
		logger: logger.WithComponent("nats-client"),
	}
}

// Connect connects to the NATS server
func (n *NATSClient) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("nft-analytics-pipeline"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.conn = conn
	n.logger.Info("Successfully connected to NATS")
	return nil
}

// Close drains and closes the connection
func (n *NATSClient) Close() {
	if n.conn != nil {
		if err := n.conn.Drain(); err != nil {
			n.logger.Warn("Failed to drain NATS connection", zap.Error(err))
		}
	}
}

// Conn returns the underlying connection, nil when NATS is disabled.
func (n *NATSClient) Conn() *nats.Conn {
	return n.conn
}
