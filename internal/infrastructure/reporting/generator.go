package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Report types map onto the rollups they read.
const (
	ReportCollectionActivity = "collection_activity"
	ReportSalesPerformance   = "sales_performance"
	ReportUserActivity       = "user_activity"
	ReportMarketOverview     = "market_overview"
)

// FileGenerator implements ReportGenerator by reading the materialized
// rollups and rendering CSV and PDF files into the output directory.
type FileGenerator struct {
	rollups   repository.RollupStore
	outputDir string
	topN      int
	logger    *logger.Logger
}

// NewFileGenerator creates a new report generator
func NewFileGenerator(rollups repository.RollupStore, cfg *config.ReportsConfig, logger *logger.Logger) service.ReportGenerator {
	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}
	return &FileGenerator{
		rollups:   rollups,
		outputDir: cfg.OutputDir,
		topN:      topN,
		logger:    logger.WithComponent("report-generator"),
	}
}

// Generate renders the requested report into one file per format.
func (g *FileGenerator) Generate(ctx context.Context, req *entity.ReportRequest) (*entity.ReportResult, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report output dir: %w", err)
	}

	rows, err := g.collect(ctx, req.ReportType)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	base := fmt.Sprintf("%s_%s", req.ReportType, stamp)

	result := &entity.ReportResult{
		Files:               make(map[string]string),
		DataPointsProcessed: len(rows),
	}

	if req.Format == entity.FormatCSV || req.Format == entity.FormatBoth {
		path := filepath.Join(g.outputDir, base+".csv")
		if err := g.writeCSV(path, rows); err != nil {
			return nil, err
		}
		result.Files[string(entity.FormatCSV)] = path
	}
	if req.Format == entity.FormatPDF || req.Format == entity.FormatBoth {
		path := filepath.Join(g.outputDir, base+".pdf")
		if err := g.writePDF(path, req.ReportType, rows); err != nil {
			return nil, err
		}
		result.Files[string(entity.FormatPDF)] = path
	}

	g.logger.Info("Report generated",
		zap.String("report_type", req.ReportType),
		zap.Int("data_points", result.DataPointsProcessed),
		zap.Int("files", len(result.Files)))
	return result, nil
}

type reportRow struct {
	Section string
	Label   string
	Value   float64
}

// collect reads the rollup slices backing a report type. Market overview
// spans all three rollups; the focused types read one each.
func (g *FileGenerator) collect(ctx context.Context, reportType string) ([]reportRow, error) {
	var kinds []entity.SnapshotKind
	switch reportType {
	case ReportCollectionActivity:
		kinds = []entity.SnapshotKind{entity.SnapshotMints}
	case ReportSalesPerformance:
		kinds = []entity.SnapshotKind{entity.SnapshotSales}
	case ReportUserActivity:
		kinds = []entity.SnapshotKind{entity.SnapshotUserActivity}
	case ReportMarketOverview:
		kinds = entity.AllSnapshotKinds
	default:
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}

	var rows []reportRow
	for _, kind := range kinds {
		entries, err := g.rollups.TopN(ctx, kind, g.topN)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s rollup: %w", kind, err)
		}
		for _, e := range entries {
			rows = append(rows, reportRow{Section: string(kind), Label: e.Label, Value: e.Value})
		}
	}
	return rows, nil
}

func (g *FileGenerator) writeCSV(path string, rows []reportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"section", "label", "value"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Section, r.Label, strconv.FormatFloat(r.Value, 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv report: %w", err)
	}
	return nil
}

func (g *FileGenerator) writePDF(path, reportType string, rows []reportRow) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Analytics Report: %s", reportType))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 8, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(50, 7, "Section", "1", 0, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Label", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Value", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(50, 7, r.Section, "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, 7, r.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, strconv.FormatFloat(r.Value, 'f', 2, 64), "1", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write pdf report: %w", err)
	}
	return nil
}
