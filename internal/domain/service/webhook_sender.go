package service

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// DeliveryAttempt is the observed outcome of one webhook POST
type DeliveryAttempt struct {
	Outcome      entity.DeliveryOutcome
	StatusCode   int
	ResponseBody string
}

// WebhookSender performs one outbound delivery attempt. Timeouts and
// failures are both reported as retryable outcomes, not errors; an error
// return means the attempt could not be made at all (bad URL, payload
// marshalling).
type WebhookSender interface {
	Send(ctx context.Context, endpoint *entity.WebhookEndpoint, payload *entity.AlertPayload) (*DeliveryAttempt, error)
}
