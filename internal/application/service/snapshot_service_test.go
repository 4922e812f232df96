package service

import (
	"context"
	"errors"
	"testing"

	"nft-analytics-pipeline/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_PublishesTopN(t *testing.T) {
	rollups := newFakeRollupStore()
	rollups.entries[entity.SnapshotMints] = []entity.SnapshotEntry{
		{Label: "0xcoll1", Value: 120},
		{Label: "0xcoll2", Value: 80},
	}
	snapCache := newFakeSnapshotCache()

	svc := NewSnapshotApplicationService(rollups, snapCache, 10, testLogger())
	result := svc.Refresh(context.Background(), entity.SnapshotMints)

	require.True(t, result.OK())
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, []string{"daily_mint_count_by_collection"}, rollups.refreshed)

	cached, found, err := snapCache.Get(context.Background(), "top_mint_collections")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entity.SnapshotMints, cached.Kind)
	assert.Len(t, cached.Entries, 2)
}

func TestRefresh_FailureIsStructuredNotFatal(t *testing.T) {
	rollups := newFakeRollupStore()
	rollups.refreshErr["daily_sales_volume_rollup"] = errors.New("view is rebuilding")
	snapCache := newFakeSnapshotCache()

	svc := NewSnapshotApplicationService(rollups, snapCache, 10, testLogger())
	result := svc.Refresh(context.Background(), entity.SnapshotSales)

	assert.False(t, result.OK())
	assert.Contains(t, result.Err, "view is rebuilding")

	// Readers keep whatever snapshot was there before.
	_, found, err := snapCache.Get(context.Background(), "top_sales_collections")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRefreshAll_CoversEveryKind(t *testing.T) {
	rollups := newFakeRollupStore()
	svc := NewSnapshotApplicationService(rollups, newFakeSnapshotCache(), 10, testLogger())

	results := svc.RefreshAll(context.Background())
	require.Len(t, results, len(entity.AllSnapshotKinds))
	for i, kind := range entity.AllSnapshotKinds {
		assert.Equal(t, kind, results[i].Kind)
		assert.True(t, results[i].OK())
	}
}

func TestHandleCommitNotice_InvalidatesAffectedKeys(t *testing.T) {
	snapCache := newFakeSnapshotCache()
	snapCache.values["top_mint_collections"] = &entity.AggregateSnapshot{Kind: entity.SnapshotMints}
	snapCache.values["top_sales_collections"] = &entity.AggregateSnapshot{Kind: entity.SnapshotSales}

	svc := NewSnapshotApplicationService(newFakeRollupStore(), snapCache, 10, testLogger())
	svc.HandleCommitNotice(context.Background(), &entity.CommitNotice{EventType: entity.EventMint, TxHash: "0x1"})

	assert.Contains(t, snapCache.invalidated, "top_mint_collections")
	assert.Contains(t, snapCache.invalidated, "top_active_users")
	assert.NotContains(t, snapCache.invalidated, "top_sales_collections")

	_, found, _ := snapCache.Get(context.Background(), "top_mint_collections")
	assert.False(t, found)
	_, found, _ = snapCache.Get(context.Background(), "top_sales_collections")
	assert.True(t, found)
}
