package repository

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// MetadataRepository defines the interface for content analysis results
type MetadataRepository interface {
	// Get retrieves the analysis for a content id, ErrNotFound when absent.
	Get(ctx context.Context, cid string) (*entity.ContentMetadata, error)

	// Upsert creates or replaces the analysis for its content id.
	Upsert(ctx context.Context, meta *entity.ContentMetadata) error
}
