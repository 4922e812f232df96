package service

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	domainService "nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationApplicationService runs the webhook notification pipeline.
// Each pending anomaly is claimed before any delivery attempt; the claim
// plus the status transition to processing guarantee at most one delivery
// sequence per anomaly even when runs overlap.
type NotificationApplicationService struct {
	anomalies repository.AnomalyRepository
	claims    repository.ClaimStore
	webhooks  repository.WebhookRepository
	sender    domainService.WebhookSender
	config    *config.WebhooksConfig
	logger    *logger.Logger
}

// NewNotificationApplicationService creates a new notification application service
func NewNotificationApplicationService(
	anomalies repository.AnomalyRepository,
	claims repository.ClaimStore,
	webhooks repository.WebhookRepository,
	sender domainService.WebhookSender,
	cfg *config.WebhooksConfig,
	logger *logger.Logger,
) *NotificationApplicationService {
	return &NotificationApplicationService{
		anomalies: anomalies,
		claims:    claims,
		webhooks:  webhooks,
		sender:    sender,
		config:    cfg,
		logger:    logger.WithComponent("notification-service"),
	}
}

// TriggerPending delivers alerts for recently detected pending anomalies.
// Only anomalies inside the recency window are considered: older pending
// rows are stale backlog, not live alerts, and firing them late would be
// noise. Per-anomaly failures never abort the batch.
func (s *NotificationApplicationService) TriggerPending(ctx context.Context) (processed, failed int, err error) {
	since := time.Now().UTC().Add(-s.config.RecencyWindow)
	pending, err := s.anomalies.ListPendingSince(ctx, since)
	if err != nil {
		return 0, 0, err
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	endpoints, err := s.webhooks.ActiveEndpoints(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, anomaly := range pending {
		ok, err := s.processAnomaly(ctx, anomaly, endpoints)
		if err != nil {
			s.logger.Error("Notification processing failed",
				zap.String("anomaly_id", anomaly.ID),
				zap.Error(err))
			continue
		}
		if ok {
			processed++
		} else {
			failed++
		}
	}

	s.logger.Info("Notification pass complete",
		zap.Int("pending", len(pending)),
		zap.Int("processed", processed),
		zap.Int("failed", failed))
	return processed, failed, nil
}

// processAnomaly claims one anomaly and runs its delivery sequence.
// Returns (true, nil) when the anomaly reached processed, (false, nil)
// when any endpoint exhausted its retries.
func (s *NotificationApplicationService) processAnomaly(ctx context.Context, anomaly *entity.AnomalyDetection, endpoints []*entity.WebhookEndpoint) (bool, error) {
	claimed, err := s.claims.Claim(ctx, anomaly.ID)
	if err != nil {
		return false, err
	}
	if !claimed {
		// Another run owns this anomaly.
		return true, nil
	}

	if err := s.anomalies.UpdateStatus(ctx, anomaly.ID, entity.AnomalyProcessing); err != nil {
		if relErr := s.claims.Release(ctx, anomaly.ID); relErr != nil {
			s.logger.Warn("Claim release failed",
				zap.String("anomaly_id", anomaly.ID),
				zap.Error(relErr))
		}
		return false, err
	}

	payload := entity.NewAlertPayload(anomaly)
	allDelivered := true
	matched := 0
	for _, endpoint := range endpoints {
		if !endpoint.Matches(anomaly) {
			continue
		}
		matched++
		if !s.deliver(ctx, endpoint, anomaly, payload) {
			allDelivered = false
		}
	}

	status := entity.AnomalyProcessed
	if !allDelivered {
		status = entity.AnomalyFailed
	}
	if err := s.anomalies.UpdateStatus(ctx, anomaly.ID, status); err != nil {
		return false, err
	}

	s.logger.Info("Anomaly notification finished",
		zap.String("anomaly_id", anomaly.ID),
		zap.String("severity", string(anomaly.Severity)),
		zap.Int("endpoints_matched", matched),
		zap.String("final_status", string(status)))
	return allDelivered, nil
}

// deliver runs the bounded retry sequence against one endpoint, logging
// every attempt. Returns true once an attempt succeeds.
func (s *NotificationApplicationService) deliver(ctx context.Context, endpoint *entity.WebhookEndpoint, anomaly *entity.AnomalyDetection, payload *entity.AlertPayload) bool {
	maxAttempts := s.config.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := s.sender.Send(ctx, endpoint, payload)
		if err != nil {
			// The attempt could not be made at all; retrying the same
			// malformed request cannot help.
			s.logger.Error("Webhook send unrecoverable",
				zap.String("endpoint_id", endpoint.ID),
				zap.String("anomaly_id", anomaly.ID),
				zap.Error(err))
			s.logAttempt(ctx, endpoint, anomaly, &domainService.DeliveryAttempt{
				Outcome:      entity.DeliveryFailure,
				ResponseBody: err.Error(),
			}, attempt)
			return false
		}

		s.logAttempt(ctx, endpoint, anomaly, result, attempt)
		if result.Outcome == entity.DeliverySuccess {
			return true
		}

		if attempt < maxAttempts {
			if err := waitRetry(ctx, s.config.RetryBackoff); err != nil {
				return false
			}
		}
	}
	return false
}

func (s *NotificationApplicationService) logAttempt(ctx context.Context, endpoint *entity.WebhookEndpoint, anomaly *entity.AnomalyDetection, result *domainService.DeliveryAttempt, attempt int) {
	record := &entity.WebhookDeliveryLog{
		ID:           uuid.NewString(),
		EndpointID:   endpoint.ID,
		AnomalyID:    anomaly.ID,
		Outcome:      result.Outcome,
		StatusCode:   result.StatusCode,
		ResponseBody: result.ResponseBody,
		Attempt:      attempt,
		SentAt:       time.Now().UTC(),
	}
	if err := s.webhooks.LogDelivery(ctx, record); err != nil {
		s.logger.Error("Delivery log write failed",
			zap.String("endpoint_id", endpoint.ID),
			zap.String("anomaly_id", anomaly.ID),
			zap.Error(err))
	}
}

// waitRetry sleeps for the backoff, aborting early on context cancel.
func waitRetry(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
