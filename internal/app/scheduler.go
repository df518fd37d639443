package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/course-extract-go/internal/domain"
)

// FileStore is where finished assets are kept
type FileStore interface {
	Exists(path string) (bool, error)
	Write(path string, r io.Reader) (int64, error)
}

// DownloadScheduler executes download tasks with a bounded worker pool
type DownloadScheduler struct {
	session domain.Session
	store   FileStore
	workers int
	logger  *zap.Logger
}

// NewDownloadScheduler creates a new scheduler
func NewDownloadScheduler(session domain.Session, store FileStore, workers int, logger *zap.Logger) *DownloadScheduler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadScheduler{session: session, store: store, workers: workers, logger: logger}
}

// Run executes every task into dir and returns one result per task, in
// task order. Completion order among tasks is unspecified.
func (s *DownloadScheduler) Run(ctx context.Context, dir string, tasks []domain.DownloadTask) []domain.TaskResult {
	results := make([]domain.TaskResult, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = s.execute(ctx, dir, task)
			s.logResult(results[i])
			return nil
		})
	}
	g.Wait()

	return results
}

func (s *DownloadScheduler) execute(ctx context.Context, dir string, task domain.DownloadTask) domain.TaskResult {
	start := time.Now()
	result := domain.TaskResult{Task: task}
	target := filepath.Join(dir, task.FileName)

	fail := func(err error) domain.TaskResult {
		var dlErr *domain.DownloadError
		if !errors.As(err, &dlErr) {
			dlErr = &domain.DownloadError{URL: task.URL, Err: err}
		}
		dlErr.Target = target
		result.Outcome = domain.OutcomeFailed
		result.Err = dlErr
		result.Duration = time.Since(start)
		return result
	}

	if task.IsNoop() {
		result.Outcome = domain.OutcomeSkipped
		result.Err = domain.ErrNoDownloadAsset
		return result
	}

	exists, err := s.store.Exists(target)
	if err != nil {
		return fail(err)
	}
	if exists {
		result.Outcome = domain.OutcomeAlreadyPresent
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	body, err := s.session.Open(ctx, task.URL)
	if err != nil {
		return fail(err)
	}
	defer body.Close()

	n, err := s.store.Write(target, body)
	if err != nil {
		return fail(err)
	}

	result.Outcome = domain.OutcomeDownloaded
	result.Bytes = n
	result.Duration = time.Since(start)
	return result
}

func (s *DownloadScheduler) logResult(r domain.TaskResult) {
	fields := []zap.Field{
		zap.String("lecture_id", r.Task.LectureID),
		zap.String("file", r.Task.FileName),
		zap.String("outcome", string(r.Outcome)),
	}

	switch r.Outcome {
	case domain.OutcomeDownloaded:
		s.logger.Info("Downloaded", append(fields,
			zap.Int64("bytes", r.Bytes),
			zap.Duration("duration", r.Duration))...)
	case domain.OutcomeAlreadyPresent:
		s.logger.Info("Already present, skipping", fields...)
	case domain.OutcomeSkipped:
		s.logger.Debug("Nothing to download", fields...)
	case domain.OutcomeFailed:
		var dlErr *domain.DownloadError
		if errors.As(r.Err, &dlErr) {
			fields = append(fields, zap.String("url", dlErr.URL), zap.Int("status", dlErr.StatusCode))
		}
		s.logger.Error("Download failed", append(fields, zap.Error(r.Err))...)
	}
}
