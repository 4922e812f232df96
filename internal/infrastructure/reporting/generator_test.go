package reporting

import (
	"context"
	"encoding/csv"
	"os"
	"testing"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRollups struct {
	entries map[entity.SnapshotKind][]entity.SnapshotEntry
}

func (s *stubRollups) RefreshView(ctx context.Context, view string) error { return nil }

func (s *stubRollups) TopN(ctx context.Context, kind entity.SnapshotKind, n int) ([]entity.SnapshotEntry, error) {
	return s.entries[kind], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger("error")
	require.NoError(t, err)
	return l
}

func TestGenerate_CSVReport(t *testing.T) {
	dir := t.TempDir()
	rollups := &stubRollups{entries: map[entity.SnapshotKind][]entity.SnapshotEntry{
		entity.SnapshotSales: {
			{Label: "0xcoll1", Value: 1200.5},
			{Label: "0xcoll2", Value: 800},
		},
	}}

	gen := NewFileGenerator(rollups, &config.ReportsConfig{OutputDir: dir, TopN: 10}, testLogger(t))
	result, err := gen.Generate(context.Background(), &entity.ReportRequest{
		ReportType: ReportSalesPerformance,
		Format:     entity.FormatCSV,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.DataPointsProcessed)
	path, ok := result.Files[string(entity.FormatCSV)]
	require.True(t, ok)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"section", "label", "value"}, records[0])
	assert.Equal(t, []string{"sales", "0xcoll1", "1200.5"}, records[1])
}

func TestGenerate_BothFormats(t *testing.T) {
	dir := t.TempDir()
	rollups := &stubRollups{entries: map[entity.SnapshotKind][]entity.SnapshotEntry{
		entity.SnapshotMints:        {{Label: "0xcoll1", Value: 5}},
		entity.SnapshotSales:        {{Label: "0xcoll1", Value: 100}},
		entity.SnapshotUserActivity: {{Label: "0xuser", Value: 9}},
	}}

	gen := NewFileGenerator(rollups, &config.ReportsConfig{OutputDir: dir, TopN: 10}, testLogger(t))
	result, err := gen.Generate(context.Background(), &entity.ReportRequest{
		ReportType: ReportMarketOverview,
		Format:     entity.FormatBoth,
	})
	require.NoError(t, err)

	// Market overview spans all three rollups.
	assert.Equal(t, 3, result.DataPointsProcessed)
	require.Len(t, result.Files, 2)
	for _, path := range result.Files {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestGenerate_UnknownTypeRejected(t *testing.T) {
	gen := NewFileGenerator(&stubRollups{}, &config.ReportsConfig{OutputDir: t.TempDir(), TopN: 10}, testLogger(t))
	_, err := gen.Generate(context.Background(), &entity.ReportRequest{
		ReportType: "quarterly_tax_summary",
		Format:     entity.FormatCSV,
	})
	assert.Error(t, err)
}
