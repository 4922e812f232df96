package service

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	domainService "nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportApplicationService orchestrates scheduled and ad-hoc report runs.
// Each run writes an execution row at start and sets its terminal state
// exactly once; the schedule only advances after a successful run.
type ReportApplicationService struct {
	reports     repository.ReportRepository
	generator   domainService.ReportGenerator
	distributor domainService.Distributor
	logger      *logger.Logger
}

// NewReportApplicationService creates a new report application service
func NewReportApplicationService(
	reports repository.ReportRepository,
	generator domainService.ReportGenerator,
	distributor domainService.Distributor,
	logger *logger.Logger,
) *ReportApplicationService {
	return &ReportApplicationService{
		reports:     reports,
		generator:   generator,
		distributor: distributor,
		logger:      logger.WithComponent("report-service"),
	}
}

// RunDue generates every active report whose next_run has passed. Reports
// are isolated: one failing report never blocks the rest of the batch,
// and a failed report keeps its next_run so the next tick retries it.
func (s *ReportApplicationService) RunDue(ctx context.Context) (generated, failed int, err error) {
	now := time.Now().UTC()
	due, err := s.reports.DueConfigs(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	for _, cfg := range due {
		if _, err := s.runConfig(ctx, cfg, now); err != nil {
			failed++
			s.logger.Error("Scheduled report failed",
				zap.String("report_id", cfg.ID),
				zap.String("report_type", cfg.ReportType),
				zap.Error(err))
			continue
		}
		generated++
	}

	if len(due) > 0 {
		s.logger.Info("Report pass complete",
			zap.Int("due", len(due)),
			zap.Int("generated", generated),
			zap.Int("failed", failed))
	}
	return generated, failed, nil
}

// GenerateSingle runs one configured report on demand, outside its
// schedule. The schedule still advances on success so the next automatic
// run does not duplicate it immediately.
func (s *ReportApplicationService) GenerateSingle(ctx context.Context, reportID string) (*entity.ReportExecution, error) {
	cfg, err := s.reports.GetConfig(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return s.runConfig(ctx, cfg, time.Now().UTC())
}

// GenerateAdhoc runs an unconfigured report. When recipients are given the
// generated files are distributed to them as well.
func (s *ReportApplicationService) GenerateAdhoc(ctx context.Context, reportType string, format entity.ReportFormat, params map[string]string, recipients []string) (*entity.ReportExecution, error) {
	now := time.Now().UTC()
	exec := s.startExecution(ctx, "", reportType, now)

	req := &entity.ReportRequest{
		ReportType: reportType,
		Format:     format,
		Params:     params,
		AdHoc:      true,
	}
	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.finishFailed(ctx, exec, err)
		return exec, err
	}
	s.applyResult(exec, result)

	if len(recipients) > 0 {
		dist, err := s.distributor.Distribute(ctx, &entity.AutomatedReportConfig{
			ID:         exec.ID,
			ReportType: reportType,
			Recipients: recipients,
		}, result.Files)
		if err != nil {
			s.finishFailed(ctx, exec, err)
			return exec, err
		}
		exec.RecipientsNotified = dist.RecipientsNotified
	}

	s.finishCompleted(ctx, exec)
	return exec, nil
}

// runConfig executes one configured report end to end: generate,
// distribute, record the execution, advance the schedule.
func (s *ReportApplicationService) runConfig(ctx context.Context, cfg *entity.AutomatedReportConfig, now time.Time) (*entity.ReportExecution, error) {
	exec := s.startExecution(ctx, cfg.ID, cfg.ReportType, now)

	req := &entity.ReportRequest{
		ReportType:     cfg.ReportType,
		Format:         cfg.Format,
		TemplateConfig: cfg.TemplateConfig,
	}
	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.finishFailed(ctx, exec, err)
		return exec, err
	}
	s.applyResult(exec, result)

	dist, err := s.distributor.Distribute(ctx, cfg, result.Files)
	if err != nil {
		s.finishFailed(ctx, exec, err)
		return exec, err
	}
	exec.RecipientsNotified = dist.RecipientsNotified

	s.finishCompleted(ctx, exec)

	cfg.LastRun = &now
	cfg.CalculateNextRun()
	cfg.UpdatedAt = now
	if err := s.reports.SaveConfig(ctx, cfg); err != nil {
		// The report went out; a schedule write failure means the next
		// tick regenerates it, which is safe but worth a loud log.
		s.logger.Error("Schedule update failed after successful report",
			zap.String("report_id", cfg.ID),
			zap.Error(err))
	}
	return exec, nil
}

func (s *ReportApplicationService) startExecution(ctx context.Context, reportID, reportType string, now time.Time) *entity.ReportExecution {
	exec := &entity.ReportExecution{
		ID:         uuid.NewString(),
		ReportID:   reportID,
		ReportType: reportType,
		Status:     entity.ExecutionPending,
		StartedAt:  now,
	}
	if err := s.reports.CreateExecution(ctx, exec); err != nil {
		s.logger.Error("Execution row create failed",
			zap.String("execution_id", exec.ID),
			zap.Error(err))
	}
	exec.Status = entity.ExecutionRunning
	s.updateExecution(ctx, exec)
	return exec
}

func (s *ReportApplicationService) applyResult(exec *entity.ReportExecution, result *entity.ReportResult) {
	exec.DataPointsProcessed = result.DataPointsProcessed
	exec.PDFFilePath = result.Files[string(entity.FormatPDF)]
	exec.CSVFilePath = result.Files[string(entity.FormatCSV)]
}

func (s *ReportApplicationService) finishCompleted(ctx context.Context, exec *entity.ReportExecution) {
	completed := time.Now().UTC()
	exec.Status = entity.ExecutionCompleted
	exec.CompletedAt = &completed
	s.updateExecution(ctx, exec)
}

func (s *ReportApplicationService) finishFailed(ctx context.Context, exec *entity.ReportExecution, cause error) {
	completed := time.Now().UTC()
	exec.Status = entity.ExecutionFailed
	exec.CompletedAt = &completed
	exec.ErrorMessage = cause.Error()
	s.updateExecution(ctx, exec)
}

func (s *ReportApplicationService) updateExecution(ctx context.Context, exec *entity.ReportExecution) {
	if err := s.reports.UpdateExecution(ctx, exec); err != nil {
		s.logger.Error("Execution row update failed",
			zap.String("execution_id", exec.ID),
			zap.String("status", string(exec.Status)),
			zap.Error(err))
	}
}
