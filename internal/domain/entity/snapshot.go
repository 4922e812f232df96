package entity

import (
	"time"
)

// SnapshotKind selects which materialized rollup a refresh targets
type SnapshotKind string

const (
	SnapshotMints        SnapshotKind = "mints"
	SnapshotSales        SnapshotKind = "sales"
	SnapshotUserActivity SnapshotKind = "user_activity"
)

// AllSnapshotKinds lists every refreshable rollup.
var AllSnapshotKinds = []SnapshotKind{SnapshotMints, SnapshotSales, SnapshotUserActivity}

// ViewName returns the materialized view backing this snapshot kind.
func (k SnapshotKind) ViewName() string {
	switch k {
	case SnapshotMints:
		return "daily_mint_count_by_collection"
	case SnapshotSales:
		return "daily_sales_volume_rollup"
	default:
		return "daily_user_activity_summary"
	}
}

// CacheKey returns the fixed cache key the top-N snapshot is published
// under. The key is overwritten unconditionally on every refresh.
func (k SnapshotKind) CacheKey() string {
	switch k {
	case SnapshotMints:
		return "top_mint_collections"
	case SnapshotSales:
		return "top_sales_collections"
	default:
		return "top_active_users"
	}
}

// SnapshotEntry is one row of a top-N snapshot
type SnapshotEntry struct {
	Label string  `json:"label"` // collection address or user id
	Value float64 `json:"value"` // mint count, sales volume or activity score
}

// AggregateSnapshot is a disposable cache value: a top-N slice of a rollup
// with its generation timestamp. Safe to recompute, never a durable record.
type AggregateSnapshot struct {
	Kind        SnapshotKind    `json:"kind"`
	GeneratedAt time.Time       `json:"generated_at"`
	Entries     []SnapshotEntry `json:"entries"`
}

// RefreshResult is the structured outcome of one snapshot refresh. Failures
// are reported here rather than propagated, so one failed refresh never
// blocks the next scheduled run.
type RefreshResult struct {
	Kind     SnapshotKind  `json:"kind"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// OK reports whether the refresh succeeded.
func (r *RefreshResult) OK() bool { return r.Err == "" }
