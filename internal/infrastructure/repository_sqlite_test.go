package infrastructure

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/course-extract-go/internal/domain"
)

func setupTestRepo(t *testing.T) (*SQLiteRunRepository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "repo-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewSQLiteRunRepository(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func TestFindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.FindByID("missing")
	assert.True(t, errors.Is(err, domain.ErrRunNotFound))
}

func TestCreateAndUpdateRun(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	run := domain.NewRun("Guitar Basics", "https://school.example.com/courses/guitar")
	require.NoError(t, repo.Create(run))

	run.MarkProcessing()
	run.MarkCompleted(domain.RunSummary{Lectures: 5, Resolved: 3, Skipped: 2, Downloaded: 3})
	require.NoError(t, repo.Update(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, found.Status)
	assert.Equal(t, 5, found.Lectures)
	assert.Equal(t, 3, found.Downloaded)
	assert.NotNil(t, found.CompletedAt)
}

func TestFindPending_OldestFirst(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	first := domain.NewRun("a", "https://example.com/a")
	first.CreatedAt = time.Now().Add(-time.Minute)
	second := domain.NewRun("b", "https://example.com/b")
	done := domain.NewRun("c", "https://example.com/c")
	done.MarkFailed(assert.AnError)

	require.NoError(t, repo.Create(second))
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(done))

	pending, err := repo.FindPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}

func TestSaveItems_ReplacesPrevious(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	run := domain.NewRun("a", "https://example.com/a")
	require.NoError(t, repo.Create(run))

	first := []*domain.RunItem{
		{LectureID: "1", FileName: "01_a_01_x.mp4", Outcome: domain.OutcomeFailed, Error: "boom"},
	}
	require.NoError(t, repo.SaveItems(run.ID, first))

	second := []*domain.RunItem{
		{LectureID: "1", FileName: "01_a_01_x.mp4", Outcome: domain.OutcomeDownloaded},
		{LectureID: "2", FileName: "01_a_02_y.mp4", Outcome: domain.OutcomeAlreadyPresent},
	}
	require.NoError(t, repo.SaveItems(run.ID, second))

	items, err := repo.FindItems(run.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.OutcomeDownloaded, items[0].Outcome)
	assert.Equal(t, "2", items[1].LectureID)
	assert.Equal(t, run.ID, items[1].RunID)
}

func TestDelete_RemovesItems(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	run := domain.NewRun("a", "https://example.com/a")
	require.NoError(t, repo.Create(run))
	require.NoError(t, repo.SaveItems(run.ID, []*domain.RunItem{{LectureID: "1", Outcome: domain.OutcomeSkipped}}))

	require.NoError(t, repo.Delete(run.ID))

	items, err := repo.FindItems(run.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = repo.FindByID(run.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestResetOrphanedProcessing(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	run := domain.NewRun("a", "https://example.com/a")
	run.MarkProcessing()
	require.NoError(t, repo.Create(run))

	n, err := repo.ResetOrphanedProcessing()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, found.Status)
	assert.Nil(t, found.StartedAt)
}

func TestGetStats(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	queued := domain.NewRun("a", "https://example.com/a")
	failed := domain.NewRun("b", "https://example.com/b")
	failed.MarkFailed(assert.AnError)
	cancelled := domain.NewRun("c", "https://example.com/c")
	cancelled.MarkCancelled()
	for _, run := range []*domain.Run{queued, failed, cancelled} {
		require.NoError(t, repo.Create(run))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Queued)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Cancelled)
	assert.Equal(t, int64(0), stats.Completed)
}

func TestFindAll_Filters(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	a := domain.NewRun("a", "https://example.com/a")
	b := domain.NewRun("b", "https://example.com/b")
	b.MarkCancelled()
	require.NoError(t, repo.Create(a))
	require.NoError(t, repo.Create(b))

	runs, err := repo.FindAll(map[string]interface{}{"status": domain.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, b.ID, runs[0].ID)
}
