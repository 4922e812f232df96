package service

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// ResultPublisher emits job run results for operational consumers.
// Publish failures are never fatal to the job that produced the result.
type ResultPublisher interface {
	PublishJobResult(ctx context.Context, result *entity.JobResult) error
}
