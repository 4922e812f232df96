package repository

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// SnapshotCache is the fast-read cache for aggregate snapshots. Values are
// disposable and fully recomputed on every refresh, so Set overwrites
// unconditionally and no transactional guarantees exist across keys.
type SnapshotCache interface {
	// Get returns the cached snapshot for a key; found=false when absent.
	Get(ctx context.Context, key string) (snapshot *entity.AggregateSnapshot, found bool, err error)

	// Set overwrites the key with the given snapshot, last writer wins.
	Set(ctx context.Context, key string, snapshot *entity.AggregateSnapshot) error

	// Invalidate removes the given keys. Called from the write-path commit
	// hook rather than any implicit model signal.
	Invalidate(ctx context.Context, keys ...string) error
}

// RollupStore exposes the materialized rollups behind snapshots
type RollupStore interface {
	// RefreshView issues a non-blocking recompute of the named view.
	// Concurrent readers see the previous contents until it completes.
	RefreshView(ctx context.Context, view string) error

	// TopN returns the view's top rows for the given kind and date,
	// ordered descending by the kind's metric.
	TopN(ctx context.Context, kind entity.SnapshotKind, n int) ([]entity.SnapshotEntry, error)
}
