package service

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// SnapshotApplicationService refreshes the materialized rollups and
// republishes their top-N slices to the cache.
type SnapshotApplicationService struct {
	rollups repository.RollupStore
	cache   repository.SnapshotCache
	topN    int
	logger  *logger.Logger
}

// NewSnapshotApplicationService creates a new snapshot application service
func NewSnapshotApplicationService(
	rollups repository.RollupStore,
	cache repository.SnapshotCache,
	topN int,
	logger *logger.Logger,
) *SnapshotApplicationService {
	if topN <= 0 {
		topN = 10
	}
	return &SnapshotApplicationService{
		rollups: rollups,
		cache:   cache,
		topN:    topN,
		logger:  logger.WithComponent("snapshot-service"),
	}
}

// Refresh recomputes one rollup and publishes its snapshot. Failures come
// back inside the result; a failed refresh never blocks the next scheduled
// run and readers keep the previous snapshot.
func (s *SnapshotApplicationService) Refresh(ctx context.Context, kind entity.SnapshotKind) *entity.RefreshResult {
	started := time.Now()
	result := &entity.RefreshResult{Kind: kind}

	if err := s.rollups.RefreshView(ctx, kind.ViewName()); err != nil {
		result.Err = err.Error()
		result.Duration = time.Since(started)
		s.logger.Error("Rollup refresh failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return result
	}

	entries, err := s.rollups.TopN(ctx, kind, s.topN)
	if err != nil {
		result.Err = err.Error()
		result.Duration = time.Since(started)
		s.logger.Error("Rollup read failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return result
	}

	snapshot := &entity.AggregateSnapshot{
		Kind:        kind,
		GeneratedAt: time.Now().UTC(),
		Entries:     entries,
	}
	if err := s.cache.Set(ctx, kind.CacheKey(), snapshot); err != nil {
		result.Err = err.Error()
		result.Duration = time.Since(started)
		s.logger.Error("Snapshot publish failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return result
	}

	result.Rows = len(entries)
	result.Duration = time.Since(started)
	s.logger.Info("Snapshot refreshed",
		zap.String("kind", string(kind)),
		zap.Int("rows", result.Rows),
		zap.Duration("duration", result.Duration))
	return result
}

// RefreshAll refreshes every rollup, collecting per-kind results.
func (s *SnapshotApplicationService) RefreshAll(ctx context.Context) []*entity.RefreshResult {
	results := make([]*entity.RefreshResult, 0, len(entity.AllSnapshotKinds))
	for _, kind := range entity.AllSnapshotKinds {
		results = append(results, s.Refresh(ctx, kind))
	}
	return results
}

// HandleCommitNotice invalidates the snapshot keys a committed event can
// affect. The event writer publishes the notice after its transaction
// commits, so stale snapshots are dropped on the write path instead of
// waiting out the refresh interval.
func (s *SnapshotApplicationService) HandleCommitNotice(ctx context.Context, notice *entity.CommitNotice) {
	keys := affectedKeys(notice.EventType)
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Error("Snapshot invalidation failed",
			zap.String("event_type", string(notice.EventType)),
			zap.Error(err))
		return
	}
	s.logger.Debug("Snapshots invalidated",
		zap.String("event_type", string(notice.EventType)),
		zap.Strings("keys", keys))
}

// affectedKeys maps an event type onto the snapshot keys it can change.
// Every event touches user activity; mints and sales additionally touch
// their own rollup.
func affectedKeys(eventType entity.EventType) []string {
	switch eventType {
	case entity.EventMint:
		return []string{entity.SnapshotMints.CacheKey(), entity.SnapshotUserActivity.CacheKey()}
	case entity.EventSale:
		return []string{entity.SnapshotSales.CacheKey(), entity.SnapshotUserActivity.CacheKey()}
	case entity.EventTransfer:
		return []string{entity.SnapshotUserActivity.CacheKey()}
	default:
		return nil
	}
}
