package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// Job is one scheduled unit of work. Handlers return a details map that
// lands in the published result; errors mark the run failed after the
// retry budget is exhausted. Jobs must tolerate at-least-once execution.
type Job struct {
	Name         string
	Interval     time.Duration
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Handler      func(ctx context.Context) (map[string]interface{}, error)
}

// Scheduler drives the registered job table. Each job gets its own ticker
// goroutine; a slow job delays only its own next tick.
type Scheduler struct {
	jobs      []Job
	publisher service.ResultPublisher
	logger    *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(publisher service.ResultPublisher, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		publisher: publisher,
		logger:    logger.WithComponent("scheduler"),
	}
}

// Register adds a job to the table. Must be called before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	if job.Handler == nil {
		return fmt.Errorf("job %s: handler is required", job.Name)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches every registered job loop.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(runCtx, job)
	}
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels the job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("Job scheduled",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

// runOnce executes one job run with timeout, panic recovery and bounded
// retries, then logs and publishes the result.
func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	result := &entity.JobResult{
		Job:       job.Name,
		Status:    "success",
		StartedAt: time.Now().UTC(),
	}

	details, err := s.attemptWithRetries(ctx, job)
	result.FinishedAt = time.Now().UTC()
	result.Details = details
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		s.logger.Error("Job run failed",
			zap.String("job", job.Name),
			zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
			zap.Error(err))
	} else {
		s.logger.Info("Job run complete",
			zap.String("job", job.Name),
			zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
			zap.Any("details", details))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishJobResult(ctx, result); err != nil {
			s.logger.Warn("Job result publish failed",
				zap.String("job", job.Name),
				zap.Error(err))
		}
	}
}

func (s *Scheduler) attemptWithRetries(ctx context.Context, job Job) (map[string]interface{}, error) {
	attempts := job.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		details, err := s.attempt(ctx, job)
		if err == nil {
			return details, nil
		}
		lastErr = err
		if attempt < attempts {
			s.logger.Warn("Job attempt failed, retrying",
				zap.String("job", job.Name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			select {
			case <-time.After(job.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// attempt runs the handler once under the job timeout, converting panics
// into errors so one bad run never takes the loop down.
func (s *Scheduler) attempt(ctx context.Context, job Job) (details map[string]interface{}, err error) {
	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()

	return job.Handler(runCtx)
}
