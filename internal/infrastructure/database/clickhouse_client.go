package database

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

// ClickHouseClient handles ClickHouse database operations
type ClickHouseClient struct {
	conn   ch.Conn
	config *config.ClickHouseConfig
	logger *logger.Logger
}

// NewClickHouseClient creates a new ClickHouse client
func NewClickHouseClient(cfg *config.ClickHouseConfig, logger *logger.Logger) *ClickHouseClient {
	return &ClickHouseClient{
		config: cfg,
		logger: logger.WithComponent("clickhouse-client"),
	}
}

// Connect opens the connection and prepares the derived-state schema
func (c *ClickHouseClient) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to ClickHouse")

	opts, err := ch.ParseDSN(c.config.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse ClickHouse DSN: %w", err)
	}

	if opts.DialTimeout == 0 {
		opts.DialTimeout = c.config.DialTimeout
	}
	if opts.Compression == nil {
		opts.Compression = &ch.Compression{Method: ch.CompressionLZ4}
	}
	opts.ClientInfo = ch.ClientInfo{
		Products: []struct{ Name, Version string }{
			{Name: "nft-analytics-pipeline", Version: "0.1.0"},
		},
	}

	conn, err := ch.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	c.conn = conn
	c.logger.Info("Successfully connected to ClickHouse")

	if err := c.setupSchema(ctx); err != nil {
		return fmt.Errorf("failed to setup schema: %w", err)
	}

	return nil
}

// Close closes the ClickHouse connection
func (c *ClickHouseClient) Close() error {
	if c.conn != nil {
		c.logger.Info("Closing ClickHouse connection")
		return c.conn.Close()
	}
	return nil
}

// Conn returns the native connection
func (c *ClickHouseClient) Conn() ch.Conn {
	return c.conn
}

// queryCtx derives a bounded context for one statement. No query in the
// pipeline is allowed to block indefinitely.
func (c *ClickHouseClient) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.config.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// setupSchema creates the derived tables and refreshable rollup views.
// The nft_events table itself belongs to the event writer; everything here
// is derived state this pipeline owns and can recompute.
func (c *ClickHouseClient) setupSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS behavior_profiles (
			wallet_address        String,
			avg_transaction_value Float64,
			transaction_frequency Float64,
			total_transactions    Int64,
			total_volume          Float64,
			preferred_collections Array(String),
			risk_score            Float64,
			first_seen            DateTime64(3, 'UTC'),
			last_activity         DateTime64(3, 'UTC'),
			updated_at            DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY wallet_address`,

		`CREATE TABLE IF NOT EXISTS retention_cohorts (
			cohort_date    Date,
			period_type    LowCardinality(String),
			period_number  Int32,
			total_users    Int32,
			retained_users Int32,
			retention_rate Float64,
			created_at     DateTime64(3, 'UTC'),
			updated_at     DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (cohort_date, period_type, period_number)`,

		`CREATE TABLE IF NOT EXISTS anomalies (
			id               String,
			anomaly_type     LowCardinality(String),
			severity         LowCardinality(String),
			confidence_score Float64,
			status           LowCardinality(String),
			data             String,
			tx_hash          String,
			detected_at      DateTime64(3, 'UTC'),
			updated_at       DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY id`,

		`CREATE TABLE IF NOT EXISTS webhook_endpoints (
			id            String,
			name          String,
			url           String,
			secret_key    String,
			min_severity  LowCardinality(String),
			anomaly_types Array(String),
			is_active     UInt8,
			created_at    DateTime64(3, 'UTC'),
			updated_at    DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY id`,

		`CREATE TABLE IF NOT EXISTS webhook_delivery_log (
			id            String,
			endpoint_id   String,
			anomaly_id    String,
			outcome       LowCardinality(String),
			status_code   Int32,
			response_body String,
			attempt       Int32,
			sent_at       DateTime64(3, 'UTC')
		) ENGINE = MergeTree
		ORDER BY (sent_at, anomaly_id)`,

		`CREATE TABLE IF NOT EXISTS report_configs (
			id              String,
			report_type     LowCardinality(String),
			frequency       LowCardinality(String),
			recipients      Array(String),
			format          LowCardinality(String),
			last_run        Nullable(DateTime64(3, 'UTC')),
			next_run        DateTime64(3, 'UTC'),
			is_active       UInt8,
			s3_bucket       String,
			s3_prefix       String,
			template_config Map(String, String),
			created_at      DateTime64(3, 'UTC'),
			updated_at      DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY id`,

		`CREATE TABLE IF NOT EXISTS report_executions (
			id                    String,
			report_id             String,
			report_type           LowCardinality(String),
			status                LowCardinality(String),
			started_at            DateTime64(3, 'UTC'),
			completed_at          Nullable(DateTime64(3, 'UTC')),
			error_message         String,
			pdf_file_path         String,
			csv_file_path         String,
			data_points_processed Int32,
			recipients_notified   Int32,
			updated_at            DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY id`,

		`CREATE TABLE IF NOT EXISTS content_metadata (
			cid                    String,
			content_type           LowCardinality(String),
			authenticity_score     Float64,
			copyright_risk         UInt8,
			standardization_issues Array(String),
			raw_metadata           String,
			last_analyzed          DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(last_analyzed)
		ORDER BY cid`,
	}

	for _, stmt := range statements {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Refreshable rollup views over the writer-owned nft_events table.
	// REFRESH EVERY gives them a baseline cadence; the snapshot refresher
	// additionally forces a refresh before republishing top-N rows.
	views := []string{
		`CREATE MATERIALIZED VIEW IF NOT EXISTS daily_mint_count_by_collection
		REFRESH EVERY 1 HOUR
		ENGINE = MergeTree ORDER BY (date, contract_address) AS
		SELECT toDate(timestamp) AS date, contract_address, count() AS mint_count
		FROM nft_events WHERE event_type = 'mint'
		GROUP BY date, contract_address`,

		`CREATE MATERIALIZED VIEW IF NOT EXISTS daily_sales_volume_rollup
		REFRESH EVERY 1 HOUR
		ENGINE = MergeTree ORDER BY (date, contract_address) AS
		SELECT toDate(timestamp) AS date, contract_address, sum(price) AS total_sales
		FROM nft_events WHERE event_type = 'sale'
		GROUP BY date, contract_address`,

		`CREATE MATERIALIZED VIEW IF NOT EXISTS daily_user_activity_summary
		REFRESH EVERY 1 HOUR
		ENGINE = MergeTree ORDER BY (date, user_address) AS
		SELECT toDate(timestamp) AS date, to_address AS user_address, count() AS activity_score
		FROM nft_events
		GROUP BY date, user_address`,
	}

	for _, view := range views {
		if err := c.conn.Exec(ctx, view); err != nil {
			// The rollups may already exist with a different owner in
			// shared environments; log and keep starting.
			c.logger.Warn("Failed to create rollup view", zap.Error(err))
		}
	}

	c.logger.Info("Schema setup completed")
	return nil
}
