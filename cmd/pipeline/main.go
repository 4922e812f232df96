package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "nft-analytics-pipeline/internal/application/service"
	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	domain_service "nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/cache"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/content"
	"nft-analytics-pipeline/internal/infrastructure/database"
	"nft-analytics-pipeline/internal/infrastructure/delivery"
	"nft-analytics-pipeline/internal/infrastructure/detection"
	"nft-analytics-pipeline/internal/infrastructure/logger"
	"nft-analytics-pipeline/internal/infrastructure/messaging"
	"nft-analytics-pipeline/internal/infrastructure/reporting"
	"nft-analytics-pipeline/internal/scheduler"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.ClickHouse),
		fx.Supply(&cfg.Redis),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Webhooks),
		fx.Supply(&cfg.Reports),
		fx.Supply(&cfg.Metadata),
		fx.Supply(&cfg.Cleanup),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			database.NewClickHouseClient,
			database.NewClickHouseEventRepository,
			database.NewClickHouseActivityRepository,
			database.NewClickHouseProfileRepository,
			database.NewClickHouseCohortRepository,
			database.NewClickHouseAnomalyRepository,
			database.NewClickHouseWebhookRepository,
			database.NewClickHouseReportRepository,
			database.NewClickHouseMetadataRepository,
			database.NewClickHouseRollupStore,
			cache.NewRedisClient,
			cache.NewRedisSnapshotCache,
			func(rdb *cache.RedisClient) repository.ClaimStore {
				return cache.NewRedisClaimStore(rdb, cfg.Webhooks.ClaimTTL, log)
			},
			messaging.NewNATSClient,
			messaging.NewCommitConsumer,
			messaging.NewNATSResultPublisher,
			func() domain_service.WebhookSender {
				return delivery.NewHTTPWebhookSender(cfg.Webhooks.DeliveryTimeout, log)
			},
			content.NewIPFSFetcher,
			reporting.NewFileGenerator,
			reporting.NewLogDistributor,
		),

		// Domain services
		fx.Provide(
			func(events repository.EventRepository) domain_service.DetectionEngine {
				return detection.NewHeuristicEngine(events, riskThresholds(cfg), cfg.Profiles.Window, log)
			},
		),

		// Application providers
		fx.Provide(
			func(rollups repository.RollupStore, snapCache repository.SnapshotCache) *app_service.SnapshotApplicationService {
				return app_service.NewSnapshotApplicationService(rollups, snapCache, cfg.Reports.TopN, log)
			},
			func(events repository.EventRepository, profiles repository.ProfileRepository) *app_service.ProfileApplicationService {
				return app_service.NewProfileApplicationService(events, profiles, riskThresholds(cfg), cfg.Profiles.Window, log)
			},
			app_service.NewRetentionApplicationService,
			app_service.NewDetectionApplicationService,
			app_service.NewNotificationApplicationService,
			app_service.NewReportApplicationService,
			func(anomalies repository.AnomalyRepository, webhooks repository.WebhookRepository) *app_service.CleanupApplicationService {
				return app_service.NewCleanupApplicationService(anomalies, webhooks, &cfg.Cleanup, cfg.Reports.OutputDir, log)
			},
			app_service.NewMetadataApplicationService,
			scheduler.NewScheduler,
		),

		// Lifecycle hooks
		fx.Invoke(startPipeline),
		fx.Invoke(startHealthServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// riskThresholds maps the configuration knobs onto the domain thresholds.
func riskThresholds(cfg *config.Config) entity.RiskConfig {
	return entity.RiskConfig{
		HighFrequencyPerDay:      cfg.Risk.HighFrequencyPerDay,
		HighFrequencyWeight:      cfg.Risk.HighFrequencyWeight,
		HighVolumeThreshold:      cfg.Risk.HighVolumeThreshold,
		HighVolumeWeight:         cfg.Risk.HighVolumeWeight,
		WashTradeMaxCollections:  cfg.Risk.WashTradeMaxCollections,
		WashTradeMinTransactions: cfg.Risk.WashTradeMinTransactions,
		WashTradeWeight:          cfg.Risk.WashTradeWeight,
	}
}

// startPipeline connects the backing stores, wires the commit consumer
// and registers the scheduled job table.
func startPipeline(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	log *logger.Logger,
	chClient *database.ClickHouseClient,
	redisClient *cache.RedisClient,
	natsClient *messaging.NATSClient,
	commitConsumer *messaging.CommitConsumer,
	snapshots *app_service.SnapshotApplicationService,
	profiles *app_service.ProfileApplicationService,
	retention *app_service.RetentionApplicationService,
	detector *app_service.DetectionApplicationService,
	notifier *app_service.NotificationApplicationService,
	reports *app_service.ReportApplicationService,
	cleanup *app_service.CleanupApplicationService,
	metadata *app_service.MetadataApplicationService,
	events repository.EventRepository,
	sched *scheduler.Scheduler,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting analytics pipeline...")

			if err := chClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to ClickHouse: %w", err)
			}
			if err := redisClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			if err := natsClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			if err := commitConsumer.Start(context.Background(), snapshots.HandleCommitNotice); err != nil {
				return fmt.Errorf("failed to start commit consumer: %w", err)
			}

			if err := registerJobs(sched, cfg, snapshots, profiles, retention, detector, notifier, reports, cleanup, metadata, events); err != nil {
				return fmt.Errorf("failed to register jobs: %w", err)
			}
			sched.Start(ctx)

			log.Info("Analytics pipeline started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping analytics pipeline...")
			sched.Stop()
			if err := commitConsumer.Stop(); err != nil {
				log.Error("Failed to stop commit consumer", zap.Error(err))
			}
			natsClient.Close()
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
			if err := chClient.Close(); err != nil {
				log.Error("Failed to close ClickHouse connection", zap.Error(err))
			}
			return nil
		},
	})
}

// registerJobs fills the scheduler's job table from configuration. Every
// job is explicit here: name, interval, timeout and retry policy in one
// place rather than scattered per task.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	snapshots *app_service.SnapshotApplicationService,
	profiles *app_service.ProfileApplicationService,
	retention *app_service.RetentionApplicationService,
	detector *app_service.DetectionApplicationService,
	notifier *app_service.NotificationApplicationService,
	reports *app_service.ReportApplicationService,
	cleanup *app_service.CleanupApplicationService,
	metadata *app_service.MetadataApplicationService,
	events repository.EventRepository,
) error {
	jobs := []scheduler.Job{
		{
			Name:     "snapshot_refresh",
			Interval: cfg.Jobs.SnapshotInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				results := snapshots.RefreshAll(ctx)
				details := make(map[string]interface{}, len(results))
				failures := 0
				for _, r := range results {
					details[string(r.Kind)] = r
					if !r.OK() {
						failures++
					}
				}
				if failures > 0 {
					return details, fmt.Errorf("%d of %d snapshot refreshes failed", failures, len(results))
				}
				return details, nil
			},
		},
		{
			Name:     "profile_recompute",
			Interval: cfg.Jobs.ProfileInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				updated, failed, err := profiles.RecomputeProfiles(ctx)
				return map[string]interface{}{"updated": updated, "failed": failed}, err
			},
		},
		{
			Name:     "retention_sweep",
			Interval: cfg.Jobs.RetentionInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				cells, failed, err := retention.RecomputeCohorts(ctx)
				return map[string]interface{}{"cells": cells, "failed": failed}, err
			},
		},
		{
			Name:     "anomaly_detection",
			Interval: cfg.Jobs.DetectionInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				found, failed, err := detector.RunDetection(ctx, "")
				return map[string]interface{}{"found": found, "failed": failed}, err
			},
		},
		{
			Name:     "webhook_notifications",
			Interval: cfg.Jobs.WebhookInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				processed, failed, err := notifier.TriggerPending(ctx)
				return map[string]interface{}{"processed": processed, "failed": failed}, err
			},
		},
		{
			Name:     "scheduled_reports",
			Interval: cfg.Jobs.ReportInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				generated, failed, err := reports.RunDue(ctx)
				return map[string]interface{}{"generated": generated, "failed": failed}, err
			},
		},
		{
			Name:     "metadata_analysis",
			Interval: cfg.Jobs.MetadataInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				cids, err := events.RecentContentIDs(ctx, time.Now().UTC().Add(-cfg.Jobs.MetadataInterval))
				if err != nil {
					return nil, err
				}
				analyzed, failed := metadata.AnalyzeBatch(ctx, cids)
				return map[string]interface{}{"analyzed": analyzed, "failed": failed}, nil
			},
		},
		{
			Name:     "cleanup_sweep",
			Interval: cfg.Jobs.CleanupInterval,
			Handler: func(ctx context.Context) (map[string]interface{}, error) {
				return cleanup.Sweep(ctx), nil
			},
		},
	}

	for i := range jobs {
		jobs[i].Timeout = cfg.Jobs.RunTimeout
		jobs[i].MaxRetries = cfg.Jobs.MaxRetries
		jobs[i].RetryBackoff = cfg.Jobs.RetryBackoff
		if err := sched.Register(jobs[i]); err != nil {
			return err
		}
	}
	return nil
}

// startHealthServer starts the health check server
func startHealthServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	logger *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting health server...", zap.Int("port", cfg.App.HTTPPort))

			mux := http.NewServeMux()
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"status":"ok"}`))
			})

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.App.HTTPPort),
				Handler: mux,
			}

			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Health server error", zap.Error(err))
				}
			}()

			logger.Info("Health server started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping health server...")
			return nil
		},
	})
}
