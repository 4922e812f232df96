package database

import (
	"context"
	"fmt"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// ClickHouseRollupStore implements RollupStore over the refreshable
// materialized views.
type ClickHouseRollupStore struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseRollupStore creates a new rollup store
func NewClickHouseRollupStore(client *ClickHouseClient, logger *logger.Logger) repository.RollupStore {
	return &ClickHouseRollupStore{
		client: client,
		logger: logger.WithComponent("rollup-store"),
	}
}

// RefreshView issues a non-blocking recompute of the named view. Readers
// keep seeing the previous contents until the refresh completes; the
// consuming cache is itself a best-effort snapshot, so stale reads during
// the refresh window are acceptable.
func (s *ClickHouseRollupStore) RefreshView(ctx context.Context, view string) error {
	ctx, cancel := s.client.queryCtx(ctx)
	defer cancel()

	if err := s.client.Conn().Exec(ctx, fmt.Sprintf("SYSTEM REFRESH VIEW %s", view)); err != nil {
		return fmt.Errorf("failed to refresh view %s: %w", view, err)
	}
	return nil
}

// TopN returns the view's top rows for today, ordered descending by the
// kind's metric.
func (s *ClickHouseRollupStore) TopN(ctx context.Context, kind entity.SnapshotKind, n int) ([]entity.SnapshotEntry, error) {
	ctx, cancel := s.client.queryCtx(ctx)
	defer cancel()

	var query string
	switch kind {
	case entity.SnapshotMints:
		query = `
			SELECT contract_address, toFloat64(mint_count)
			FROM daily_mint_count_by_collection
			WHERE date = today()
			ORDER BY mint_count DESC LIMIT ?
		`
	case entity.SnapshotSales:
		query = `
			SELECT contract_address, total_sales
			FROM daily_sales_volume_rollup
			WHERE date = today()
			ORDER BY total_sales DESC LIMIT ?
		`
	case entity.SnapshotUserActivity:
		query = `
			SELECT user_address, toFloat64(activity_score)
			FROM daily_user_activity_summary
			WHERE date = today()
			ORDER BY activity_score DESC LIMIT ?
		`
	default:
		return nil, fmt.Errorf("unknown snapshot kind: %s", kind)
	}

	rows, err := s.client.Conn().Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top rows for %s: %w", kind, err)
	}
	defer rows.Close()

	var entries []entity.SnapshotEntry
	for rows.Next() {
		var e entity.SnapshotEntry
		if err := rows.Scan(&e.Label, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan rollup row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
