package database

import (
	"context"
	"encoding/json"
	"fmt"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ClickHouseMetadataRepository implements MetadataRepository
type ClickHouseMetadataRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseMetadataRepository creates a new metadata repository
func NewClickHouseMetadataRepository(client *ClickHouseClient, logger *logger.Logger) repository.MetadataRepository {
	return &ClickHouseMetadataRepository{
		client: client,
		logger: logger.WithComponent("metadata-repo"),
	}
}

// Get retrieves the analysis for a content id.
func (r *ClickHouseMetadataRepository) Get(ctx context.Context, cid string) (*entity.ContentMetadata, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT cid, content_type, authenticity_score, copyright_risk,
		       standardization_issues, raw_metadata, last_analyzed
		FROM content_metadata FINAL
		WHERE cid = ?
	`
	m := &entity.ContentMetadata{}
	var copyrightRisk uint8
	var raw string
	err := r.client.Conn().QueryRow(ctx, query, cid).Scan(
		&m.CID, &m.ContentType, &m.AuthenticityScore, &copyrightRisk,
		&m.StandardizationIssues, &raw, &m.LastAnalyzed)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metadata for %s: %w", cid, err)
	}
	m.CopyrightRisk = copyrightRisk == 1
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.RawMetadata); err != nil {
			r.logger.Warn("Failed to decode raw metadata", zap.String("cid", cid), zap.Error(err))
		}
	}
	return m, nil
}

// Upsert creates or replaces the analysis for its content id.
func (r *ClickHouseMetadataRepository) Upsert(ctx context.Context, m *entity.ContentMetadata) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	raw, err := json.Marshal(m.RawMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal raw metadata for %s: %w", m.CID, err)
	}

	copyrightRisk := uint8(0)
	if m.CopyrightRisk {
		copyrightRisk = 1
	}

	query := `
		INSERT INTO content_metadata (
			cid, content_type, authenticity_score, copyright_risk,
			standardization_issues, raw_metadata, last_analyzed
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	err = r.client.Conn().Exec(ctx, query,
		m.CID, m.ContentType, m.AuthenticityScore, copyrightRisk,
		m.StandardizationIssues, string(raw), m.LastAnalyzed)
	if err != nil {
		return fmt.Errorf("failed to upsert metadata for %s: %w", m.CID, err)
	}
	return nil
}
