package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
	"github.com/yourusername/course-extract-go/pkg/logger"
)

// QueueManager manages the run queue
type QueueManager struct {
	repo        domain.RunRepository
	runMgr      *RunManager
	notifier    *infrastructure.NotificationService
	config      *domain.QueueConfig
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	running     bool
	inFlight    map[string]struct{}
	stopChan    chan struct{}
	workerWg    sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.RunRepository,
	runMgr *RunManager,
	notifier *infrastructure.NotificationService,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
) *QueueManager {
	return &QueueManager{
		repo:        repo,
		runMgr:      runMgr,
		notifier:    notifier,
		config:      config,
		multiLogger: multiLogger,
		inFlight:    make(map[string]struct{}),
	}
}

// Start starts the queue processor. Runs left processing by a previous
// process are queued again first. A stopped manager can be started again.
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	stop := make(chan struct{})
	qm.stopChan = stop
	qm.mu.Unlock()

	if n, err := qm.repo.ResetOrphanedProcessing(); err != nil {
		qm.logAppError("Failed to reset orphaned runs", zap.Error(err))
	} else if n > 0 {
		qm.logQueueEvent("orphaned_runs_requeued", zap.Int64("count", n))
	}

	qm.logQueueEvent("queue_started")

	qm.workerWg.Add(1)
	go qm.processQueue(ctx, stop)

	return nil
}

// Stop stops the queue processor and waits for in-flight runs
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	stop := qm.stopChan
	qm.mu.Unlock()

	qm.logQueueEvent("queue_stopped")
	close(stop)
	qm.workerWg.Wait()

	return nil
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// AddRun queues a course run
func (qm *QueueManager) AddRun(courseName, courseURL string) (*domain.Run, error) {
	run := domain.NewRun(courseName, courseURL)
	if run.CourseName == "" {
		return nil, fmt.Errorf("course name is required")
	}
	if !domain.ValidateCourseURL(run.CourseURL) {
		return nil, fmt.Errorf("invalid course url: %s", courseURL)
	}

	if err := qm.repo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	qm.logQueueEvent("run_added",
		zap.String("id", run.ID),
		zap.String("course", run.CourseName),
		zap.String("url", run.CourseURL))

	return run, nil
}

// GetRun retrieves a run by ID
func (qm *QueueManager) GetRun(id string) (*domain.Run, error) {
	return qm.repo.FindByID(id)
}

// GetRunItems retrieves the per-lecture outcomes of a run
func (qm *QueueManager) GetRunItems(id string) ([]*domain.RunItem, error) {
	if _, err := qm.repo.FindByID(id); err != nil {
		return nil, err
	}
	return qm.repo.FindItems(id)
}

// ListRuns lists all runs with optional filters
func (qm *QueueManager) ListRuns(filters map[string]interface{}) ([]*domain.Run, error) {
	return qm.repo.FindAll(filters)
}

// DeleteRun removes a run that is not executing
func (qm *QueueManager) DeleteRun(id string) error {
	run, err := qm.repo.FindByID(id)
	if err != nil {
		return err
	}
	if run.Status == domain.StatusProcessing {
		return fmt.Errorf("run is processing, cancel it first")
	}
	return qm.repo.Delete(id)
}

// GetStats returns queue statistics
func (qm *QueueManager) GetStats() (*domain.RunStats, error) {
	return qm.repo.GetStats()
}

// processQueue dispatches queued runs until stopped
func (qm *QueueManager) processQueue(ctx context.Context, stop <-chan struct{}) {
	defer qm.workerWg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(qm.config.CheckInterval)
	defer ticker.Stop()

	busy := qm.dispatchPending(ctx)

	for {
		select {
		case <-ctx.Done():
			qm.logQueueEvent("queue_processor_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-stop:
			qm.logQueueEvent("queue_processor_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			dispatched := qm.dispatchPending(ctx)
			if busy && !dispatched && qm.inFlightCount() == 0 {
				qm.logQueueEvent("queue_empty")
				if qm.notifier != nil {
					qm.notifier.NotifyQueueEmpty()
				}
				busy = false
			}
			if dispatched {
				busy = true
			}
		}
	}
}

// dispatchPending starts a goroutine for every queued run not yet handed
// to the run manager. RunManager serializes the actual execution.
func (qm *QueueManager) dispatchPending(ctx context.Context) bool {
	pending, err := qm.repo.FindPending()
	if err != nil {
		qm.logAppError("Failed to fetch pending runs", zap.Error(err))
		return false
	}

	dispatched := false
	for _, run := range pending {
		qm.mu.Lock()
		if _, ok := qm.inFlight[run.ID]; ok {
			qm.mu.Unlock()
			continue
		}
		qm.inFlight[run.ID] = struct{}{}
		qm.mu.Unlock()
		dispatched = true

		qm.logQueueEvent("run_dispatched",
			zap.String("id", run.ID),
			zap.String("course", run.CourseName))

		qm.workerWg.Add(1)
		go func(run *domain.Run) {
			defer qm.workerWg.Done()
			defer func() {
				qm.mu.Lock()
				delete(qm.inFlight, run.ID)
				qm.mu.Unlock()
			}()

			if err := qm.runMgr.ProcessRun(ctx, run); err != nil {
				qm.logQueueEvent("run_failed", zap.String("id", run.ID), zap.Error(err))
				qm.logAppError("Failed to process run", zap.String("id", run.ID), zap.Error(err))
				return
			}
			qm.logQueueEvent("run_finished",
				zap.String("id", run.ID),
				zap.String("status", string(run.Status)),
				zap.String("summary", run.Summary().String()))
		}(run)
	}
	return dispatched
}

func (qm *QueueManager) inFlightCount() int {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return len(qm.inFlight)
}

func (qm *QueueManager) logQueueEvent(event string, fields ...zap.Field) {
	if qm.multiLogger != nil {
		qm.multiLogger.LogQueueEvent(event, fields...)
	}
}

func (qm *QueueManager) logAppError(msg string, fields ...zap.Field) {
	if qm.multiLogger != nil {
		qm.multiLogger.LogAppError(msg, fields...)
	}
}
