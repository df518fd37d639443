package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
)

// CourseRunner executes one course run
type CourseRunner interface {
	Execute(ctx context.Context, courseName, courseURL string) (*RunReport, error)
}

// RunManager drives persisted runs through their lifecycle
type RunManager struct {
	repo     domain.RunRepository
	runner   CourseRunner
	notifier *infrastructure.NotificationService
	logger   *zap.Logger
	slot     chan struct{} // one run at a time; each run is already parallel inside
	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
}

// NewRunManager creates a new run manager
func NewRunManager(
	repo domain.RunRepository,
	runner CourseRunner,
	notifier *infrastructure.NotificationService,
	logger *zap.Logger,
) *RunManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunManager{
		repo:     repo,
		runner:   runner,
		notifier: notifier,
		logger:   logger,
		slot:     make(chan struct{}, 1),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// ProcessRun executes a queued run and records its outcome. A run that is
// no longer queued when its turn comes is left alone.
func (rm *RunManager) ProcessRun(ctx context.Context, run *domain.Run) error {
	select {
	case rm.slot <- struct{}{}:
		defer func() { <-rm.slot }()
	case <-ctx.Done():
		return ctx.Err()
	}

	// registered before the reload so a concurrent CancelRun always
	// reaches this run through its context
	runCtx, cancel := context.WithCancel(ctx)
	rm.mu.Lock()
	rm.cancels[run.ID] = cancel
	rm.mu.Unlock()
	defer func() {
		rm.mu.Lock()
		delete(rm.cancels, run.ID)
		rm.mu.Unlock()
		cancel()
	}()

	current, err := rm.repo.FindByID(run.ID)
	if err != nil {
		return fmt.Errorf("failed to reload run: %w", err)
	}
	if current.Status != domain.StatusQueued {
		rm.logger.Info("Run no longer queued, skipping",
			zap.String("id", run.ID),
			zap.String("status", string(current.Status)))
		return nil
	}
	*run = *current

	if runCtx.Err() != nil && ctx.Err() == nil {
		run.MarkCancelled()
		if err := rm.repo.Update(run); err != nil {
			return fmt.Errorf("failed to update run status: %w", err)
		}
		rm.logger.Info("Run cancelled before start", zap.String("id", run.ID))
		return nil
	}

	rm.logger.Info("Processing run",
		zap.String("id", run.ID),
		zap.String("course", run.CourseName),
		zap.String("url", run.CourseURL))

	run.MarkProcessing()
	if err := rm.repo.Update(run); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	rm.notify(func(n *infrastructure.NotificationService) { n.NotifyRunStarted(run) })

	report, execErr := rm.runner.Execute(runCtx, run.CourseName, run.CourseURL)
	if report == nil {
		report = &RunReport{}
	}

	if err := rm.repo.SaveItems(run.ID, runItems(run.ID, report)); err != nil {
		rm.logger.Error("Failed to save run items", zap.String("id", run.ID), zap.Error(err))
	}

	userCancelled := runCtx.Err() != nil && ctx.Err() == nil

	switch {
	case execErr == nil && !userCancelled:
		run.MarkCompleted(report.Summary)
		rm.logger.Info("Run completed",
			zap.String("id", run.ID),
			zap.String("summary", report.Summary.String()))
		rm.notify(func(n *infrastructure.NotificationService) { n.NotifyRunCompleted(run) })

	case ctx.Err() != nil:
		// shutting down: queue it again, finished files are skipped next time
		run.Requeue()
		rm.logger.Info("Run interrupted by shutdown, requeued", zap.String("id", run.ID))

	case userCancelled || errors.Is(execErr, context.Canceled):
		run.ApplySummary(report.Summary)
		run.MarkCancelled()
		rm.logger.Info("Run cancelled", zap.String("id", run.ID))

	default:
		run.ApplySummary(report.Summary)
		run.MarkFailed(execErr)
		rm.logger.Error("Run failed",
			zap.String("id", run.ID),
			zap.String("course", run.CourseName),
			zap.Error(execErr))
		rm.notify(func(n *infrastructure.NotificationService) { n.NotifyRunFailed(run, execErr) })
	}

	if err := rm.repo.Update(run); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	if run.Status == domain.StatusFailed {
		return execErr
	}
	return nil
}

// CancelRun cancels a queued or processing run
func (rm *RunManager) CancelRun(id string) error {
	run, err := rm.repo.FindByID(id)
	if err != nil {
		return err
	}

	if run.IsTerminal() {
		return fmt.Errorf("run already in terminal state: %s", run.Status)
	}

	rm.mu.Lock()
	cancel, inFlight := rm.cancels[id]
	rm.mu.Unlock()
	if inFlight {
		// ProcessRun records the cancelled status once the pipeline unwinds
		cancel()
		rm.logger.Info("Run cancellation requested", zap.String("id", id))
		return nil
	}

	run.MarkCancelled()
	if err := rm.repo.Update(run); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rm.logger.Info("Run cancelled", zap.String("id", id))
	return nil
}

// RetryRun queues a finished run again
func (rm *RunManager) RetryRun(id string) (*domain.Run, error) {
	run, err := rm.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if !run.CanRequeue() {
		return nil, fmt.Errorf("run cannot be retried in state: %s", run.Status)
	}

	run.Requeue()
	if err := rm.repo.Update(run); err != nil {
		return nil, fmt.Errorf("failed to update run: %w", err)
	}

	rm.logger.Info("Run queued for retry", zap.String("id", id))
	return run, nil
}

// IsProcessing reports whether a run is executing in this process
func (rm *RunManager) IsProcessing(id string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	_, ok := rm.cancels[id]
	return ok
}

func (rm *RunManager) notify(fn func(n *infrastructure.NotificationService)) {
	if rm.notifier != nil {
		fn(rm.notifier)
	}
}

// runItems flattens a report into one item per lecture outcome
func runItems(runID string, report *RunReport) []*domain.RunItem {
	items := make([]*domain.RunItem, 0, len(report.Resolutions))
	for _, res := range report.Resolutions {
		if res.Err == nil {
			continue
		}
		items = append(items, &domain.RunItem{
			RunID:     runID,
			LectureID: res.Lecture.ID,
			FileName:  res.Lecture.FileName(),
			Outcome:   domain.OutcomeSkipped,
			Error:     res.Err.Error(),
		})
	}
	for _, result := range report.Results {
		items = append(items, domain.NewRunItem(runID, result))
	}
	return items
}
