package service

import (
	"context"
	"errors"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	domainService "nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// MetadataApplicationService analyzes NFT content metadata fetched from
// the gateway. Fresh analyses are skipped; transient fetch failures get
// one fixed-delay retry before the failure surfaces.
type MetadataApplicationService struct {
	fetcher  domainService.MetadataFetcher
	metadata repository.MetadataRepository
	config   *config.MetadataConfig
	logger   *logger.Logger
}

// NewMetadataApplicationService creates a new metadata application service
func NewMetadataApplicationService(
	fetcher domainService.MetadataFetcher,
	metadata repository.MetadataRepository,
	cfg *config.MetadataConfig,
	logger *logger.Logger,
) *MetadataApplicationService {
	return &MetadataApplicationService{
		fetcher:  fetcher,
		metadata: metadata,
		config:   cfg,
		logger:   logger.WithComponent("metadata-service"),
	}
}

// Analyze fetches and analyzes one content id. A recent analysis is
// returned as-is without touching the gateway.
func (s *MetadataApplicationService) Analyze(ctx context.Context, cid string) (*entity.ContentMetadata, error) {
	now := time.Now().UTC()

	existing, err := s.metadata.Get(ctx, cid)
	if err == nil && now.Sub(existing.LastAnalyzed) < s.config.ReanalyzeAfter {
		return existing, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	raw, err := s.fetchWithRetry(ctx, cid)
	if err != nil {
		return nil, err
	}

	meta := entity.AnalyzeContent(cid, raw, now)
	if err := s.metadata.Upsert(ctx, meta); err != nil {
		return nil, err
	}

	s.logger.Info("Content analyzed",
		zap.String("cid", cid),
		zap.String("content_type", meta.ContentType),
		zap.Float64("authenticity_score", meta.AuthenticityScore),
		zap.Int("issues", len(meta.StandardizationIssues)))
	return meta, nil
}

// AnalyzeBatch analyzes a set of content ids with per-item isolation.
func (s *MetadataApplicationService) AnalyzeBatch(ctx context.Context, cids []string) (analyzed, failed int) {
	for _, cid := range cids {
		if _, err := s.Analyze(ctx, cid); err != nil {
			failed++
			s.logger.Error("Content analysis failed",
				zap.String("cid", cid),
				zap.Error(err))
			continue
		}
		analyzed++
	}
	return analyzed, failed
}

// fetchWithRetry retries exactly once, only for transport failures.
func (s *MetadataApplicationService) fetchWithRetry(ctx context.Context, cid string) (map[string]interface{}, error) {
	raw, err := s.fetcher.Fetch(ctx, cid)
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, domainService.ErrTransport) {
		return nil, err
	}

	s.logger.Warn("Metadata fetch failed, retrying",
		zap.String("cid", cid),
		zap.Duration("delay", s.config.RetryDelay),
		zap.Error(err))
	if err := waitRetry(ctx, s.config.RetryDelay); err != nil {
		return nil, err
	}
	return s.fetcher.Fetch(ctx, cid)
}
