package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// HTTPWebhookSender implements WebhookSender with a plain HTTP client.
// Each Send is one POST; retries are the caller's concern so that the
// delivery log gets one row per attempt.
type HTTPWebhookSender struct {
	client  *http.Client
	timeout time.Duration
	logger  *logger.Logger
}

// NewHTTPWebhookSender creates a new webhook sender
func NewHTTPWebhookSender(timeout time.Duration, logger *logger.Logger) service.WebhookSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPWebhookSender{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger.WithComponent("webhook-sender"),
	}
}

// Send posts the alert payload to the endpoint. Timeouts and non-2xx
// responses come back as attempt outcomes; only a malformed request is
// an error.
func (s *HTTPWebhookSender) Send(ctx context.Context, endpoint *entity.WebhookEndpoint, payload *entity.AlertPayload) (*service.DeliveryAttempt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request for %s: %w", endpoint.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "nft-analytics-pipeline/1.0")
	if endpoint.SecretKey != "" {
		req.Header.Set("X-Signature-SHA256", sign(endpoint.SecretKey, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			s.logger.Warn("Webhook delivery timed out",
				zap.String("endpoint_id", endpoint.ID),
				zap.Duration("timeout", s.timeout))
			return &service.DeliveryAttempt{Outcome: entity.DeliveryTimeout}, nil
		}
		return &service.DeliveryAttempt{
			Outcome:      entity.DeliveryFailure,
			ResponseBody: err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	attempt := &service.DeliveryAttempt{
		StatusCode:   resp.StatusCode,
		ResponseBody: string(respBody),
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		attempt.Outcome = entity.DeliverySuccess
	} else {
		attempt.Outcome = entity.DeliveryFailure
	}
	return attempt, nil
}

// sign computes the hex HMAC-SHA256 of the payload under the endpoint's
// shared secret. Receivers verify it before trusting the alert.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
