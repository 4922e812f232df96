package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Profiles   ProfilesConfig   `mapstructure:"profiles"`
	Webhooks   WebhooksConfig   `mapstructure:"webhooks"`
	Reports    ReportsConfig    `mapstructure:"reports"`
	Metadata   MetadataConfig   `mapstructure:"metadata"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPPort int    `mapstructure:"http_port"`
}

// ClickHouseConfig represents event store configuration
type ClickHouseConfig struct {
	DSN          string        `mapstructure:"dsn"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// RedisConfig represents cache configuration
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Prefix       string        `mapstructure:"prefix"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NATSConfig represents messaging configuration
type NATSConfig struct {
	URL               string        `mapstructure:"url"`
	Enabled           bool          `mapstructure:"enabled"`
	CommitSubject     string        `mapstructure:"commit_subject"`
	ResultSubject     string        `mapstructure:"result_subject"`
	ConsumerGroup     string        `mapstructure:"consumer_group"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
}

// RiskConfig represents the risk score thresholds
type RiskConfig struct {
	HighFrequencyPerDay      float64 `mapstructure:"high_frequency_per_day"`
	HighFrequencyWeight      float64 `mapstructure:"high_frequency_weight"`
	HighVolumeThreshold      float64 `mapstructure:"high_volume_threshold"`
	HighVolumeWeight         float64 `mapstructure:"high_volume_weight"`
	WashTradeMaxCollections  int     `mapstructure:"wash_trade_max_collections"`
	WashTradeMinTransactions int     `mapstructure:"wash_trade_min_transactions"`
	WashTradeWeight          float64 `mapstructure:"wash_trade_weight"`
}

// ProfilesConfig represents the behavior profile pass configuration
type ProfilesConfig struct {
	Window time.Duration `mapstructure:"window"`
}

// WebhooksConfig represents the notification pipeline configuration
type WebhooksConfig struct {
	RecencyWindow   time.Duration `mapstructure:"recency_window"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	ClaimTTL        time.Duration `mapstructure:"claim_ttl"`
}

// ReportsConfig represents report generation configuration
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	TopN      int    `mapstructure:"top_n"`
}

// MetadataConfig represents content analysis configuration
type MetadataConfig struct {
	GatewayURL     string        `mapstructure:"gateway_url"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	ReanalyzeAfter time.Duration `mapstructure:"reanalyze_after"`
}

// CleanupConfig represents the retention sweep configuration
type CleanupConfig struct {
	AnomalyRetention time.Duration `mapstructure:"anomaly_retention"`
	LogRetention     time.Duration `mapstructure:"log_retention"`
}

// JobsConfig represents the scheduled job intervals and retry policy
type JobsConfig struct {
	SnapshotInterval  time.Duration `mapstructure:"snapshot_interval"`
	ProfileInterval   time.Duration `mapstructure:"profile_interval"`
	RetentionInterval time.Duration `mapstructure:"retention_interval"`
	DetectionInterval time.Duration `mapstructure:"detection_interval"`
	WebhookInterval   time.Duration `mapstructure:"webhook_interval"`
	MetadataInterval  time.Duration `mapstructure:"metadata_interval"`
	ReportInterval    time.Duration `mapstructure:"report_interval"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	RunTimeout        time.Duration `mapstructure:"run_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/nft-analytics-pipeline")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate surfaces fatal configuration errors before anything starts.
func (c *Config) validate() error {
	if c.ClickHouse.DSN == "" {
		return fmt.Errorf("clickhouse.dsn is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Webhooks.RecencyWindow <= 0 {
		return fmt.Errorf("webhooks.recency_window must be positive")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.http_port", 8080)

	// ClickHouse defaults
	viper.SetDefault("clickhouse.dsn", "clickhouse://localhost:9000/analytics")
	viper.SetDefault("clickhouse.dial_timeout", "5s")
	viper.SetDefault("clickhouse.query_timeout", "30s")

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "analytics:")
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")

	// NATS defaults
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.enabled", true)
	viper.SetDefault("nats.commit_subject", "events.committed")
	viper.SetDefault("nats.result_subject", "pipeline.jobs")
	viper.SetDefault("nats.consumer_group", "analytics-pipeline")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")

	// Risk thresholds
	viper.SetDefault("risk.high_frequency_per_day", 10)
	viper.SetDefault("risk.high_frequency_weight", 0.3)
	viper.SetDefault("risk.high_volume_threshold", 100)
	viper.SetDefault("risk.high_volume_weight", 0.2)
	viper.SetDefault("risk.wash_trade_max_collections", 2)
	viper.SetDefault("risk.wash_trade_min_transactions", 10)
	viper.SetDefault("risk.wash_trade_weight", 0.3)

	// Profile pass
	viper.SetDefault("profiles.window", "168h") // last 7 days

	// Webhook notification pipeline
	viper.SetDefault("webhooks.recency_window", "5m")
	viper.SetDefault("webhooks.delivery_timeout", "30s")
	viper.SetDefault("webhooks.max_retries", 3)
	viper.SetDefault("webhooks.retry_backoff", "2s")
	viper.SetDefault("webhooks.claim_ttl", "10m")

	// Reports
	viper.SetDefault("reports.output_dir", "./reports")
	viper.SetDefault("reports.top_n", 10)

	// Metadata analysis
	viper.SetDefault("metadata.gateway_url", "https://ipfs.io/ipfs")
	viper.SetDefault("metadata.fetch_timeout", "15s")
	viper.SetDefault("metadata.retry_delay", "60s")
	viper.SetDefault("metadata.max_concurrent", 4)
	viper.SetDefault("metadata.reanalyze_after", "24h")

	// Cleanup sweep
	viper.SetDefault("cleanup.anomaly_retention", "2160h") // 90 days
	viper.SetDefault("cleanup.log_retention", "720h")      // 30 days

	// Job intervals
	viper.SetDefault("jobs.snapshot_interval", "15m")
	viper.SetDefault("jobs.profile_interval", "1h")
	viper.SetDefault("jobs.retention_interval", "24h")
	viper.SetDefault("jobs.detection_interval", "10m")
	viper.SetDefault("jobs.webhook_interval", "1m")
	viper.SetDefault("jobs.metadata_interval", "30m")
	viper.SetDefault("jobs.report_interval", "5m")
	viper.SetDefault("jobs.cleanup_interval", "24h")
	viper.SetDefault("jobs.run_timeout", "10m")
	viper.SetDefault("jobs.max_retries", 1)
	viper.SetDefault("jobs.retry_backoff", "5s")
}
